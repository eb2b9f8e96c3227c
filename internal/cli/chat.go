package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/techg-platform/techg-client/internal/model"
)

func newChatCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Join the community group chat",
		Long:  "Interactive group chat. Type to send; commands: /edit <id> <text>, /delete <id>, /react <id> <emoji>, /report <id>, /upload <path>, /refresh, /quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()

			user, err := a.Auth.ResolveUser(ctx)
			if err != nil {
				banner("resolve session", err)
				return nil
			}
			if user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}

			if err := a.Channel.Connect(ctx); err != nil {
				banner("connect realtime channel", err)
				fmt.Fprintln(os.Stderr, "continuing with polling only")
			}
			defer a.Channel.Close()

			printer := newMessagePrinter(user.ID)
			a.Chat.OnUpdate(func() {
				printer.print(a.Chat.Messages())
			})
			a.Notifications.OnUpdate(func() {
				if unread := a.Notifications.Unread(); unread > 0 {
					fmt.Printf("🔔 %d unread notification(s)\n", unread)
				}
			})

			if err := a.Notifications.Start(ctx); err != nil {
				banner("load notifications", err)
			}
			if err := a.Chat.Start(ctx); err != nil {
				banner("load chat history", err)
			}
			defer a.Chat.Stop()

			fmt.Printf("connected as %s — type a message, /quit to leave\n", user.Name)

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/quit" {
					return nil
				}
				if handleChatCommand(a, cmd, line) {
					continue
				}

				a.Chat.Typing()
				if _, err := a.Chat.Send(ctx, model.MessageSendRequest{Content: line}); err != nil {
					banner("send message", err)
				}
			}

			return scanner.Err()
		},
	}
}

// handleChatCommand dispatches slash commands; returns false for plain text.
func handleChatCommand(a *App, cmd *cobra.Command, line string) bool {
	if !strings.HasPrefix(line, "/") {
		return false
	}

	ctx := cmd.Context()
	fields := strings.Fields(line)

	switch fields[0] {
	case "/refresh":
		if err := a.Chat.Refresh(ctx); err != nil {
			banner("refresh", err)
		}
	case "/edit":
		if len(fields) < 3 {
			fmt.Println("usage: /edit <id> <text>")
			return true
		}
		if err := a.Chat.Edit(ctx, fields[1], strings.Join(fields[2:], " ")); err != nil {
			banner("edit message", err)
		}
	case "/delete":
		if len(fields) != 2 {
			fmt.Println("usage: /delete <id>")
			return true
		}
		if err := a.Chat.Delete(ctx, fields[1]); err != nil {
			banner("delete message", err)
		}
	case "/react":
		if len(fields) != 3 {
			fmt.Println("usage: /react <id> <emoji>")
			return true
		}
		if err := a.Chat.React(ctx, fields[1], fields[2]); err != nil {
			banner("react", err)
		}
	case "/report":
		if len(fields) != 2 {
			fmt.Println("usage: /report <id>")
			return true
		}
		if err := a.Chat.Report(ctx, fields[1]); err != nil {
			banner("report message", err)
		}
	case "/upload":
		if len(fields) != 2 {
			fmt.Println("usage: /upload <path>")
			return true
		}
		uploadAndSend(a, cmd, fields[1])
	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}

	return true
}

func uploadAndSend(a *App, cmd *cobra.Command, path string) {
	ctx := cmd.Context()

	file, err := os.Open(path)
	if err != nil {
		banner("open file", err)
		return
	}
	defer file.Close()

	result, err := a.Chat.Upload(ctx, file.Name(), file)
	if err != nil {
		banner("upload file", err)
		return
	}

	if _, err := a.Chat.Send(ctx, model.MessageSendRequest{
		Content:   path,
		MediaURL:  result.URL,
		MediaType: result.Type,
	}); err != nil {
		banner("send media message", err)
	}
}

// messagePrinter emits each message once, keyed by id, so view refreshes do
// not repeat history on screen.
type messagePrinter struct {
	selfID  string
	mu      sync.Mutex
	printed map[string]struct{}
}

func newMessagePrinter(selfID string) *messagePrinter {
	return &messagePrinter{selfID: selfID, printed: make(map[string]struct{})}
}

func (p *messagePrinter) print(msgs []model.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, msg := range msgs {
		if _, done := p.printed[msg.ID]; done {
			continue
		}
		p.printed[msg.ID] = struct{}{}

		marker := ""
		if msg.IsLocal() {
			marker = " (sending…)"
		}
		if msg.Edited {
			marker += " (edited)"
		}

		name := msg.SenderName
		if msg.SenderID == p.selfID {
			name = "you"
		}

		fmt.Printf("[%s] %s: %s%s\n", msg.CreatedAt.Format("15:04"), name, msg.Content, marker)
	}
}
