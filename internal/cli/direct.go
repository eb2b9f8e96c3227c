package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDirectCmd(app **App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "direct",
		Short: "Direct messages with the admin team",
	}

	cmd.AddCommand(newDirectListCmd(app), newDirectSendCmd(app), newDirectReadCmd(app))
	return cmd
}

func newDirectListCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show conversations and unread counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()

			if user, err := a.Auth.ResolveUser(ctx); err != nil || user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}
			if err := a.Direct.Refresh(ctx); err != nil {
				banner("load direct messages", err)
				return nil
			}

			conversations := a.Direct.Conversations()
			if len(conversations) == 0 {
				fmt.Println("no conversations yet")
				return nil
			}

			for _, conv := range conversations {
				name := conv.PartnerName
				if name == "" {
					name = conv.PartnerID
				}
				fmt.Printf("%s — %d message(s), %d unread\n", name, len(conv.Messages), conv.Unread)
				for _, msg := range conv.Messages {
					fmt.Printf("  [%s] %s: %s\n", msg.CreatedAt.Format("Jan 2 15:04"), msg.SenderName, msg.Content)
				}
			}
			return nil
		},
	}
}

func newDirectSendCmd(app **App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a direct message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()

			user, err := a.Auth.ResolveUser(ctx)
			if err != nil || user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}

			receiver := to
			if receiver == "" {
				// Students write to the admin team; pick the first admin.
				if err := a.Directory.Refresh(ctx); err != nil {
					banner("load directory", err)
					return nil
				}
				admins := a.Directory.Admins()
				if len(admins) == 0 {
					fmt.Println("no admins available")
					return nil
				}
				receiver = admins[0].ID
			}

			content := ""
			for i, arg := range args {
				if i > 0 {
					content += " "
				}
				content += arg
			}

			if _, err := a.Direct.Send(ctx, receiver, content); err != nil {
				banner("send direct message", err)
				return nil
			}
			fmt.Println("sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "receiver user id (defaults to the admin team)")
	return cmd
}

func newDirectReadCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "read <partner-id>",
		Short: "Mark a conversation read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()

			if user, err := a.Auth.ResolveUser(ctx); err != nil || user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}
			if err := a.Direct.Refresh(ctx); err != nil {
				banner("load direct messages", err)
				return nil
			}
			if err := a.Direct.MarkRead(ctx, args[0]); err != nil {
				banner("mark conversation read", err)
				return nil
			}
			fmt.Println("marked read")
			return nil
		},
	}
}
