package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved conversations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			convs := a.conversations.All()
			sort.Slice(convs, func(i, j int) bool {
				return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
			})
			if limit > 0 && len(convs) > limit {
				convs = convs[:limit]
			}
			if len(convs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No conversations yet.")
				return nil
			}

			for _, c := range convs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
					c.ID, c.UpdatedAt.Format("2006-01-02 15:04"), c.Title)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n conversations")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <conversation-id>",
		Short: "Print a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			conv := a.conversations.Get(args[0])
			if conv == nil {
				return fmt.Errorf("no conversation with id %s", args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n\n", conv.Title, conv.CreatedAt.Format("2006-01-02 15:04"))
			for _, m := range conv.Messages {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", m.Role, m.Content)
				if m.Usage != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "  (%d in / %d out tokens)\n", m.Usage.InputTokens, m.Usage.OutputTokens)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <conversation-id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			a.conversations.Delete(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all conversations without --yes")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			a.conversations.ClearAll()
			fmt.Fprintln(cmd.OutOrStdout(), "All conversations deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}
