package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snipcheck/internal/server"
	"github.com/leapstack-labs/snipcheck/internal/watch"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run history over HTTP",
		Long: `Start a JSON API over the history database.

Endpoints:
  GET /healthz            liveness
  GET /api/runs           recent runs (?limit=N)
  GET /api/runs/latest    the most recent run with its verdicts
  GET /api/runs/{id}      one run with its verdicts
  GET /api/events         server-sent events when a run is recorded

With --watch the catalog is re-run and recorded whenever a document changes.`,
		Example: `  # Serve history on the default port
  snipcheck serve

  # Re-run on change and stream results
  snipcheck serve --watch --port 9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().Int("port", 0, "Port to listen on")
	cmd.Flags().Bool("watch", false, "Re-run the catalog when documents change")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	store, err := cc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cfg := server.Config{
		Store:  store,
		Port:   cc.Cfg.Serve.Port,
		Logger: cc.Logger,
	}
	if cc.Cfg.Serve.Watch {
		cfg.Watcher = watch.New(watch.Config{
			Dirs:   watchDirs(cc.Cfg.DocsDir, cc.Cfg.NormalizersDir, nil),
			Logger: cc.Logger,
		})
		cfg.Rerun = func(ctx context.Context) error {
			_, err := cc.RunCatalog(ctx, nil, store)
			return err
		}
	}

	cc.Renderer.Success(fmt.Sprintf("Serving run history on http://localhost:%d", cc.Cfg.Serve.Port))
	if cc.Cfg.Serve.Watch {
		cc.Renderer.Println(cc.Renderer.Styles().Muted.Render("Watching " + cc.Cfg.DocsDir))
	}
	cc.Renderer.Println(cc.Renderer.Styles().Muted.Render("Press Ctrl+C to stop"))

	return server.New(cfg).Serve(cmd.Context())
}
