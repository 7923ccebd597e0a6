package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/NickPittas/littlellm-go/internal/config"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-time configuration",
		Long:  "Configure the default provider, API keys, and memory backend for littlellm.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			fmt.Println("Welcome to littlellm! Let's get you configured.")
			fmt.Println()

			cfg := config.Default()

			fmt.Println("Which provider do you primarily use?")
			fmt.Println("  [1] Claude (Anthropic)")
			fmt.Println("  [2] OpenAI (GPT-4o)")
			fmt.Print("> ")

			switch strings.TrimSpace(readLineBuf(reader)) {
			case "2":
				cfg.DefaultProvider = "openai"
				if key := readKey("OpenAI", "OPENAI_API_KEY"); key != "" {
					cfg.Keys.OpenAI = key
				}
			default:
				cfg.DefaultProvider = "claude"
				if key := readKey("Anthropic", "ANTHROPIC_API_KEY"); key != "" {
					cfg.Keys.Anthropic = key
				}
			}

			fmt.Println()
			fmt.Println("Memory backend?")
			fmt.Println("  [1] file (JSON records, the default)")
			fmt.Println("  [2] sqlite")
			fmt.Print("> ")
			if strings.TrimSpace(readLineBuf(reader)) == "2" {
				cfg.Storage.MemoryBackend = "sqlite"
			}

			if err := config.Save(cfg); err != nil {
				return err
			}

			path, _ := config.Path()
			fmt.Println()
			fmt.Printf("Saved %s\n", path)
			fmt.Println("Run 'littlellm chat' to start talking.")
			return nil
		},
	}
}

// readKey prompts for an API key without echoing it. Falls back to plain
// input when stdin is not a terminal.
func readKey(provider, envVar string) string {
	fmt.Printf("Enter your %s API key (or press Enter to set %s later): ", provider, envVar)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		key, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(key))
	}
	return readLineBuf(bufio.NewReader(os.Stdin))
}

func readLineBuf(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
