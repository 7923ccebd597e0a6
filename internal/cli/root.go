// Package cli defines the Cobra command tree for the littlellm CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "littlellm",
	Short: "LLM chat client with persistent history and automatic memory",
	Long: `littlellm is a chat client for Claude and OpenAI that remembers.

Conversations persist across sessions, and a memory subsystem automatically
distills reusable facts from your chats (preferences, solutions, project
knowledge) and injects the relevant ones back into future prompts.

Run 'littlellm setup' once, then 'littlellm chat' to start talking.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(
		newChatCmd(),
		newHistoryCmd(),
		newShowCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newRememberCmd(),
		newMemoriesCmd(),
		newForgetCmd(),
		newExportCmd(),
		newMigrateCmd(),
		newServeMCPCmd(),
		newSetupCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("littlellm %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
