package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDirectoryCmd(app **App) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Browse the member directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if err := a.Directory.Refresh(cmd.Context()); err != nil {
				banner("load directory", err)
				return nil
			}

			users := a.Directory.Search(query)
			if len(users) == 0 {
				fmt.Println("no members found")
				return nil
			}

			for _, user := range users {
				fmt.Printf("%s  %-24s %-32s %s\n", user.ID, user.Name, user.Email, user.Role)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "search", "", "filter by name, email or role")
	return cmd
}
