package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/NickPittas/littlellm-go/internal/adapter"
	"github.com/NickPittas/littlellm-go/internal/conversation"
)

const defaultSystemPrompt = "You are a helpful assistant."

// historyWindow is how many recent turns feed the memory analyzer.
const historyWindow = 6

func newChatCmd() *cobra.Command {
	var (
		model       string
		resume      string
		system      string
		noMemory    bool
		maxTokens   int
		temperature float64
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the configured LLM",
		Long: `Start an interactive chat session, or send a single message.

The conversation is persisted and can be resumed later. Relevant stored
memories are injected into the prompt automatically, and memorable facts
from the exchange are saved back.

Examples:
  littlellm chat
  littlellm chat "Summarize this error: ..."
  littlellm chat --resume 1717680000000
  littlellm chat --model openai --no-memory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if noMemory {
				a.manager.SetEnabled(false)
			}

			llm, provider, err := a.newAdapter(model)
			if err != nil {
				return err
			}

			sess := &chatSession{
				app:         a,
				llm:         llm,
				system:      system,
				maxTokens:   maxTokens,
				temperature: temperature,
				out:         cmd.OutOrStdout(),
			}

			if resume != "" {
				conv := a.conversations.Get(resume)
				if conv == nil {
					return fmt.Errorf("no conversation with id %s", resume)
				}
				sess.convID = conv.ID
				sess.messages = conv.Messages
				fmt.Fprintf(sess.out, "Resuming %q (%d messages)\n", conv.Title, len(conv.Messages))
			}

			// One-shot mode: send the message and exit.
			if len(args) > 0 {
				return sess.turn(cmd.Context(), strings.Join(args, " "))
			}

			// Another window over the same data dir may rewrite the index;
			// refresh so the history commands inside the REPL stay current.
			if w, err := a.convStore.WatchIndex(0, a.conversations.RefreshFromDisk); err == nil {
				defer w.Close()
			}

			fmt.Fprintf(sess.out, "littlellm (provider: %s). Type your message, or 'exit' to quit.\n", provider)
			reader := bufio.NewReader(os.Stdin)
			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			for {
				if interactive {
					fmt.Fprint(sess.out, "> ")
				}
				line, err := reader.ReadString('\n')
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				if err := sess.turn(cmd.Context(), line); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "provider override: claude, openai")
	cmd.Flags().StringVar(&resume, "resume", "", "conversation id to resume")
	cmd.Flags().StringVar(&system, "system", defaultSystemPrompt, "system prompt")
	cmd.Flags().BoolVar(&noMemory, "no-memory", false, "disable automatic memory search and save")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 4096, "maximum response tokens")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "sampling temperature")

	return cmd
}

// chatSession carries one REPL's conversation state between turns.
type chatSession struct {
	app         *app
	llm         adapter.ChatAdapter
	system      string
	maxTokens   int
	temperature float64
	out         io.Writer

	convID   string
	messages []conversation.Message
}

// turn sends one user message, streams the reply, persists both, and runs
// the auto-save heuristics over the completed exchange.
func (s *chatSession) turn(ctx context.Context, userText string) error {
	enhanced, memCtx := s.app.manager.EnhancePrompt(
		ctx, s.system, userText, s.convID, "", recentContents(s.messages, historyWindow))
	if n := len(memCtx.Relevant); n > 0 {
		s.app.logger.Debug("memory context attached", "memories", n, "summary", memCtx.Summary)
	}

	turns := make([]adapter.Turn, 0, len(s.messages)+1)
	for _, m := range s.messages {
		turns = append(turns, adapter.Turn{Role: string(m.Role), Content: m.Content})
	}
	turns = append(turns, adapter.Turn{Role: string(conversation.RoleUser), Content: userText})

	stream, err := s.llm.Chat(ctx, adapter.ChatRequest{
		System:      enhanced,
		Messages:    turns,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Stream:      s.app.cfg.Output.Stream,
	})
	if err != nil {
		return err
	}

	var reply strings.Builder
	var usage *adapter.Usage
	for chunk := range stream {
		if chunk.Error != nil {
			return chunk.Error
		}
		if chunk.Text != "" {
			reply.WriteString(chunk.Text)
			fmt.Fprint(s.out, chunk.Text)
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}
	fmt.Fprintln(s.out)

	now := time.Now()
	s.messages = append(s.messages,
		conversation.Message{Role: conversation.RoleUser, Content: userText, Timestamp: now},
		assistantMessage(reply.String(), usage, now),
	)

	if s.convID == "" {
		s.convID = s.app.conversations.Create(s.messages)
	} else {
		s.app.conversations.Update(s.convID, s.messages)
	}

	if _, err := s.app.manager.AutoSave(ctx, userText, reply.String(), s.convID, ""); err != nil {
		s.app.logger.Warn("auto-save failed", "error", err)
	}
	return nil
}

func assistantMessage(content string, usage *adapter.Usage, ts time.Time) conversation.Message {
	m := conversation.Message{Role: conversation.RoleAssistant, Content: content, Timestamp: ts}
	if usage != nil {
		m.Usage = &conversation.Usage{
			InputTokens:  usage.PromptTokens,
			OutputTokens: usage.CompletionTokens,
		}
	}
	return m
}

// recentContents returns the plain text of the last n messages, oldest first.
func recentContents(messages []conversation.Message, n int) []string {
	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}
