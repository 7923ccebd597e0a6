package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NickPittas/littlellm-go/internal/memory"
)

func newRememberCmd() *cobra.Command {
	var (
		memType   string
		title     string
		projectID string
		tags      []string
	)

	cmd := &cobra.Command{
		Use:   "remember <fact>",
		Short: "Store a memory entry manually",
		Long: `Save something littlellm should remember across conversations.

Examples:
  littlellm remember "I prefer answers in bullet points"
  littlellm remember "The staging API lives at stage.example.com" --type project-knowledge --project myapp
  littlellm remember "Restart the agent after changing its env" --type solution`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fact := strings.Join(args, " ")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entryType := memory.TypeGeneral
			if memType != "" {
				entryType = memory.EntryType(strings.ToLower(memType))
				if !memory.ValidEntryType(entryType) {
					return fmt.Errorf("unknown type %q (valid: preference, conversation-context, project-knowledge, code-snippet, solution, general)", memType)
				}
			}

			entryTitle := title
			if entryTitle == "" {
				entryTitle = fact
				if runes := []rune(entryTitle); len(runes) > 60 {
					entryTitle = string(runes[:60]) + "..."
				}
			}

			saved, err := a.memories.Save(memory.Entry{
				Type:      entryType,
				Title:     entryTitle,
				Content:   fact,
				Tags:      tags,
				ProjectID: projectID,
			})
			if err != nil {
				return fmt.Errorf("store memory: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored as: %s\n  %q\n  id: %s\n", saved.Type, fact, saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&memType, "type", "t", "", "entry type (default general)")
	cmd.Flags().StringVar(&title, "title", "", "short title (derived from the fact if unset)")
	cmd.Flags().StringVar(&projectID, "project", "", "project id to attach the memory to")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags (repeatable)")

	return cmd
}
