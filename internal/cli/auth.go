package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techg-platform/techg-client/internal/model"
)

func newLoginCmd(app **App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := (*app).Auth.Login(cmd.Context(), model.Credentials{
				Email:    email,
				Password: password,
			})
			if err != nil {
				banner("log in", err)
				return nil
			}
			fmt.Printf("welcome back, %s (%s)\n", user.Name, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRegisterCmd(app **App) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := (*app).Auth.Register(cmd.Context(), model.Registration{
				Name:     name,
				Email:    email,
				Password: password,
			})
			if err != nil {
				banner("register", err)
				return nil
			}
			fmt.Printf("account created for %s\n", user.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			(*app).Auth.Logout()
			fmt.Println("logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := (*app).Auth.ResolveUser(cmd.Context())
			if err != nil {
				banner("resolve session", err)
				return nil
			}
			if user == nil {
				fmt.Println("not logged in")
				return nil
			}
			fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
			return nil
		},
	}
}

func newProfileCmd(app **App) *cobra.Command {
	var name, bio, avatar string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the profile of the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := (*app).Auth.UpdateProfile(cmd.Context(), model.ProfileUpdate{
				Name:      name,
				Bio:       bio,
				AvatarURL: avatar,
			})
			if err != nil {
				banner("update profile", err)
				return nil
			}
			fmt.Printf("profile updated for %s\n", user.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL")

	return cmd
}
