package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snipcheck/internal/watch"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Re-run the catalog whenever a document changes",
		Long: `Run the catalog once, then watch the documents and normalizer hooks
and run it again after every change. Press Ctrl+C to stop.`,
		Example: `  # Watch the whole catalog
  snipcheck watch

  # Watch a single guide
  snipcheck watch docs/guide`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args)
		},
	}

	cmd.Flags().Bool("fail-fast", false, "Stop each run after the first failing snippet")
	cmd.Flags().Bool("no-history", false, "Do not record runs in the history database")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	r := cc.Renderer

	return cc.WithHistory(func(store core.HistoryStore) error {
		runOnce := func(ctx context.Context) {
			summary, err := cc.RunCatalog(ctx, args, store)
			if err != nil {
				r.Error(err.Error())
				return
			}
			if err := r.Summary(summary); err != nil {
				cc.Logger.Warn("failed to render summary", "error", err)
			}
		}

		runOnce(ctx)

		w := watch.New(watch.Config{
			Dirs:   watchDirs(cc.Cfg.DocsDir, cc.Cfg.NormalizersDir, args),
			Logger: cc.Logger,
		})
		r.Println("")
		r.Println(r.Styles().Muted.Render("Watching for changes. Press Ctrl+C to stop."))

		return w.Run(ctx, func(ctx context.Context, changed []string) {
			r.Println("")
			r.Header(2, fmt.Sprintf("%d file(s) changed", len(changed)))
			runOnce(ctx)
		})
	})
}

// watchDirs returns the directories to watch: the directories of explicit
// paths, or the docs directory, plus the normalizers directory.
func watchDirs(docsDir, normalizersDir string, paths []string) []string {
	var dirs []string
	if len(paths) == 0 {
		dirs = append(dirs, docsDir)
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && info.IsDir() {
			dirs = append(dirs, p)
			continue
		}
		dirs = append(dirs, filepath.Dir(p))
	}
	if normalizersDir != "" {
		dirs = append(dirs, normalizersDir)
	}
	return dirs
}
