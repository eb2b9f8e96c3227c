package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techg-platform/techg-client/internal/model"
)

func newBlogCmd(app **App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog",
		Short: "Community blog",
	}

	cmd.AddCommand(
		newBlogListCmd(app),
		newBlogShowCmd(app),
		newBlogPostCmd(app),
		newBlogCommentCmd(app),
		newBlogReactCmd(app),
		newBlogDeleteCmd(app),
	)
	return cmd
}

func newBlogListCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List blog posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if err := a.Blog.Refresh(cmd.Context()); err != nil {
				banner("load blog", err)
				return nil
			}
			for _, post := range a.Blog.Posts() {
				fmt.Printf("%s  %s — %s (%d comments, tags: %s)\n",
					post.ID, post.CreatedAt.Format("2006-01-02"), post.Title, len(post.Comments), joinTags(post.Tags))
			}
			return nil
		},
	}
}

func newBlogShowCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one post with comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			post, err := a.Blog.Get(cmd.Context(), args[0])
			if err != nil {
				banner("load post", err)
				return nil
			}

			fmt.Printf("# %s\nby %s on %s\n\n%s\n", post.Title, post.AuthorName, post.CreatedAt.Format("Jan 2 2006"), post.Content)
			if len(post.Reactions) > 0 {
				fmt.Printf("\nreactions: %d\n", len(post.Reactions))
			}
			for _, comment := range post.Comments {
				fmt.Printf("\n> %s (%s): %s\n", comment.AuthorName, comment.CreatedAt.Format("Jan 2 15:04"), comment.Content)
			}
			return nil
		},
	}
}

func newBlogPostCmd(app **App) *cobra.Command {
	var title, content, cover string
	var tags []string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a post",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if user, err := a.Auth.ResolveUser(cmd.Context()); err != nil || user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}

			post, err := a.Blog.Create(cmd.Context(), model.BlogCreateRequest{
				Title:    title,
				Content:  content,
				CoverURL: cover,
				Tags:     tags,
			})
			if err != nil {
				banner("publish post", err)
				return nil
			}
			fmt.Printf("published %s\n", post.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&content, "content", "", "post body")
	cmd.Flags().StringVar(&cover, "cover", "", "cover image URL")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "post tags")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")

	return cmd
}

func newBlogCommentCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if user, err := a.Auth.ResolveUser(cmd.Context()); err != nil || user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}

			content := ""
			for i, arg := range args[1:] {
				if i > 0 {
					content += " "
				}
				content += arg
			}

			if _, err := a.Blog.Comment(cmd.Context(), args[0], model.CommentCreateRequest{Content: content}); err != nil {
				banner("comment", err)
				return nil
			}
			fmt.Println("comment added")
			return nil
		},
	}
}

func newBlogReactCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "react <id> <emoji>",
		Short: "React to a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if user, err := a.Auth.ResolveUser(cmd.Context()); err != nil || user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}
			if _, err := a.Blog.React(cmd.Context(), args[0], args[1]); err != nil {
				banner("react", err)
				return nil
			}
			fmt.Println("reaction recorded")
			return nil
		},
	}
}

func newBlogDeleteCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if user, err := a.Auth.ResolveUser(cmd.Context()); err != nil || user == nil {
				fmt.Println("log in first: techg login")
				return nil
			}
			if err := a.Blog.Delete(cmd.Context(), args[0]); err != nil {
				banner("delete post", err)
				return nil
			}
			fmt.Println("deleted")
			return nil
		},
	}
}
