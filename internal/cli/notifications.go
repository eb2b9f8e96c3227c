package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotificationsCmd(app **App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Platform notifications",
	}

	cmd.AddCommand(newNotificationsListCmd(app), newNotificationsReadCmd(app), newNotificationsDeleteCmd(app))
	return cmd
}

func newNotificationsListCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notifications with unread markers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()

			user, err := a.Auth.ResolveUser(ctx)
			if err != nil || user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}
			if err := a.Notifications.Refresh(ctx); err != nil {
				banner("load notifications", err)
				return nil
			}

			items := a.Notifications.Notifications()
			if len(items) == 0 {
				fmt.Println("no notifications")
				return nil
			}

			for _, item := range items {
				marker := " "
				if !item.ReadByUser(user.ID) {
					marker = "*"
				}
				fmt.Printf("%s %s  [%s] %s — %s\n", marker, item.ID, item.Type, item.Title, item.Message)
			}
			fmt.Printf("\n%d unread\n", a.Notifications.Unread())
			return nil
		},
	}
}

func newNotificationsReadCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()

			if user, err := a.Auth.ResolveUser(ctx); err != nil || user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}
			if err := a.Notifications.Refresh(ctx); err != nil {
				banner("load notifications", err)
				return nil
			}
			if err := a.Notifications.MarkRead(ctx, args[0]); err != nil {
				banner("mark notification read", err)
				return nil
			}
			fmt.Println("marked read")
			return nil
		},
	}
}

func newNotificationsDeleteCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()

			if user, err := a.Auth.ResolveUser(ctx); err != nil || user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}
			if err := a.Notifications.Delete(ctx, args[0]); err != nil {
				banner("delete notification", err)
				return nil
			}
			fmt.Println("deleted")
			return nil
		},
	}
}
