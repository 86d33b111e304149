package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snipcheck/internal/cli/config"
	"github.com/leapstack-labs/snipcheck/internal/cli/output"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new snipcheck project",
		Long: `Initialize a new snipcheck project with a default configuration.

This creates:
  - snipcheck.yaml configuration file
  - docs/ with a sample guide whose snippets pass
  - normalizers/ with a sample Starlark output normalizer
  - .gitignore excluding the history database`,
		Example: `  # Initialize in current directory
  snipcheck init

  # Initialize in a new directory
  snipcheck init my-docs

  # Force overwrite existing files
  snipcheck init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			mode := output.ModeAuto
			if cfg := config.FromContext(cmd.Context()); cfg != nil {
				mode = output.Mode(cfg.OutputFormat)
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileNames[0])
	}

	files, err := copyTemplate("minimal", dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("snipcheck project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Write examples in docs/ with expected output in comments")
	r.Println("  2. Run 'snipcheck list' to see the snippets found")
	r.Println("  3. Run 'snipcheck run' to check them")

	return nil
}
