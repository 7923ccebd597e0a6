package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NickPittas/littlellm-go/internal/memory"
)

func newMemoriesCmd() *cobra.Command {
	var (
		memType string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "memories [query]",
		Short: "List or search stored memories",
		Long: `Without a query, lists every memory newest first. With a query, runs a
relevance-ranked search.

Examples:
  littlellm memories
  littlellm memories --type preference
  littlellm memories docker compose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) > 0 {
				hits, err := a.memories.Search(memory.Query{
					Text:  strings.Join(args, " "),
					Type:  memory.EntryType(memType),
					Limit: limit,
				})
				if err != nil {
					return err
				}
				if len(hits) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching memories.")
					return nil
				}
				for _, h := range hits {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s (%.2f)\n  id: %s\n  %s\n\n",
						h.Type, h.Title, h.BaseScore, h.ID, h.Content)
				}
				return nil
			}

			entries, err := a.memories.List()
			if err != nil {
				return err
			}
			shown := 0
			for _, e := range entries {
				if memType != "" && string(e.Type) != memType {
					continue
				}
				if limit > 0 && shown >= limit {
					break
				}
				line := fmt.Sprintf("[%s] %s\n  id: %s | created: %s | used %d times",
					e.Type, e.Title, e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.AccessCount)
				if len(e.Tags) > 0 {
					line += " | tags: " + strings.Join(e.Tags, ", ")
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
				fmt.Fprintln(cmd.OutOrStdout())
				shown++
			}
			if shown == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No memories stored.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&memType, "type", "t", "", "restrict to one entry type")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries")

	return cmd
}

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <memory-id>",
		Short: "Delete a memory entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.memories.Delete(args[0]); err != nil {
				return fmt.Errorf("delete memory: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s.\n", args[0])
			return nil
		},
	}
}
