package cli

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/NickPittas/littlellm-go/internal/config"
	"github.com/NickPittas/littlellm-go/internal/conversation"
	"github.com/NickPittas/littlellm-go/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Split a legacy single-file history into per-conversation records",
		Long: `Older versions stored every conversation in one history.json blob.
Migration runs automatically on first use; this command runs it explicitly,
with progress output, and accepts an alternate blob location.

The blob is renamed to history.json.bak afterwards. Running migrate again
is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dataDir, err := cfg.DataDir()
			if err != nil {
				return err
			}

			legacyPath := from
			if legacyPath == "" {
				legacyPath = config.LegacyHistoryPath(dataDir)
			}

			st, err := store.NewFileStore[conversation.Meta, conversation.Conversation](config.ConversationsDir(dataDir))
			if err != nil {
				return err
			}
			if st.Migrated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Already migrated; nothing to do.")
				return nil
			}

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("  Migrating conversations"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			migrated, err := st.MigrateLegacyBlob(legacyPath,
				func(c conversation.Conversation) string { return c.ID },
				func(c conversation.Conversation) conversation.Meta {
					return conversation.Meta{
						ID:           c.ID,
						Title:        c.Title,
						CreatedAt:    c.CreatedAt,
						UpdatedAt:    c.UpdatedAt,
						MessageCount: len(c.Messages),
					}
				},
				func(done, total int) {
					bar.ChangeMax(total)
					_ = bar.Set(done)
				},
			)
			_ = bar.Finish()
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			if migrated == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No legacy history found; marked as migrated.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d conversation(s).\n", migrated)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "path to the legacy history blob (default <data-dir>/history.json)")
	return cmd
}
