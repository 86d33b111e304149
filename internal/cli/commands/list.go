package commands

import (
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [paths...]",
		Short: "List the snippets found in the catalog",
		Long: `Parse the catalog without executing anything and list every snippet
with its id, language, position and number of expected output lines.
Malformed snippets are listed with their parse error.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List every snippet
  snipcheck list

  # List snippets as JSON
  snipcheck list --output json`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	docs, err := cc.LoadDocuments(args)
	if err != nil {
		return err
	}
	eng, err := cc.NewEngine(nil)
	if err != nil {
		return err
	}
	records, err := eng.Collect(docs)
	if err != nil {
		return err
	}

	return cc.Renderer.Records(records)
}
