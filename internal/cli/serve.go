package cli

import (
	"github.com/spf13/cobra"

	"github.com/NickPittas/littlellm-go/internal/mcp"
)

func newServeMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the memory store as MCP tools over stdio",
		Long: `Expose littlellm's memory store and conversation history to MCP clients
(Claude Desktop, editors, other assistants) over stdio. Tools: memory_save,
memory_search, memory_list, memory_forget, history_list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return mcp.NewServer(a.memories, a.conversations, version).Serve()
		},
	}
}
