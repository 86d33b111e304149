package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display snipcheck version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "snipcheck v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Documentation snippet checker built with Go %s\n", runtime.Version())
		},
	}
}
