package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techg-platform/techg-client/internal/model"
)

func newAdminCmd(app **App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin console",
	}

	cmd.AddCommand(
		newAdminUsersCmd(app),
		newAdminRoleCmd(app),
		newAdminRemoveCmd(app),
		newAdminBroadcastCmd(app),
	)
	return cmd
}

func newAdminUsersCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if _, err := a.Auth.ResolveUser(cmd.Context()); err != nil {
				banner("resolve session", err)
				return nil
			}

			users, err := a.Admin.Users(cmd.Context())
			if err != nil {
				banner("list users", err)
				return nil
			}
			for _, user := range users {
				fmt.Printf("%s  %-24s %-32s %s\n", user.ID, user.Name, user.Email, user.Role)
			}
			return nil
		},
	}
}

func newAdminRoleCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "role <user-id> <role>",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if _, err := a.Auth.ResolveUser(cmd.Context()); err != nil {
				banner("resolve session", err)
				return nil
			}

			user, err := a.Admin.UpdateRole(cmd.Context(), args[0], args[1])
			if err != nil {
				banner("change role", err)
				return nil
			}
			fmt.Printf("%s is now %s\n", user.Name, user.Role)
			return nil
		},
	}
}

func newAdminRemoveCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user-id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if _, err := a.Auth.ResolveUser(cmd.Context()); err != nil {
				banner("resolve session", err)
				return nil
			}
			if err := a.Admin.Remove(cmd.Context(), args[0]); err != nil {
				banner("remove account", err)
				return nil
			}
			fmt.Println("removed")
			return nil
		},
	}
}

func newAdminBroadcastCmd(app **App) *cobra.Command {
	var title, message, kind string

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send a notification to every user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if _, err := a.Auth.ResolveUser(cmd.Context()); err != nil {
				banner("resolve session", err)
				return nil
			}

			created, err := a.Admin.Broadcast(cmd.Context(), model.NotificationCreateRequest{
				Title:   title,
				Message: message,
				Type:    kind,
			})
			if err != nil {
				banner("broadcast notification", err)
				return nil
			}
			fmt.Printf("notification %s sent\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "notification title")
	cmd.Flags().StringVar(&message, "message", "", "notification body")
	cmd.Flags().StringVar(&kind, "type", "info", "notification type")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}
