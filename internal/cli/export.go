package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NickPittas/littlellm-go/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		format       string
		output       string
		withMemories bool
	)

	cmd := &cobra.Command{
		Use:   "export [conversation-id]",
		Short: "Export a conversation or the memory store",
		Long: `Render a conversation transcript, the stored memories, or both to a
portable format.

Examples:
  littlellm export 1717680000000
  littlellm export 1717680000000 --format json -o transcript.json
  littlellm export --memories --format markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !withMemories {
				return fmt.Errorf("nothing to export: pass a conversation id or --memories")
			}

			exporter, ok := export.Get(format)
			if !ok {
				return fmt.Errorf("unknown format %q (valid: %s)", format, strings.Join(export.ValidFormats(), ", "))
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var data export.ExportData
			if len(args) > 0 {
				conv := a.conversations.Get(args[0])
				if conv == nil {
					return fmt.Errorf("no conversation with id %s", args[0])
				}
				data.Conversation = conv
			}
			if withMemories {
				entries, err := a.memories.List()
				if err != nil {
					return err
				}
				data.Memories = entries
			}

			rendered, err := exporter.Export(data)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), rendered)
				return nil
			}
			if err := os.WriteFile(output, []byte(rendered), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s.\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&withMemories, "memories", false, "include the memory store")

	return cmd
}
