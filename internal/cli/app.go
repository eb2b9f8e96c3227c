package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/techg-platform/techg-client/internal/api"
	"github.com/techg-platform/techg-client/internal/config"
	"github.com/techg-platform/techg-client/internal/controller"
	"github.com/techg-platform/techg-client/internal/realtime"
	"github.com/techg-platform/techg-client/internal/session"
)

// App bundles the shared dependencies every command composes: the session,
// the request client, the realtime channel and the page controllers.
type App struct {
	Config   config.Config
	Logger   zerolog.Logger
	Sessions *session.Store
	API      *api.Client
	Channel  *realtime.Channel

	Auth          *controller.AuthController
	Chat          *controller.ChatController
	Direct        *controller.DirectController
	Blog          *controller.BlogController
	Notifications *controller.NotificationController
	Admin         *controller.AdminController
	Directory     *controller.DirectoryController
}

// NewApp loads configuration and wires the dependency graph.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	sessions := session.NewStore(cfg.TokenPath, logger)
	if err := sessions.Load(); err != nil {
		logger.Warn().Err(err).Msg("failed to restore session")
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, sessions, logger)
	client.OnUnauthorized(func() {
		fmt.Fprintln(os.Stderr, "session expired, please log in again")
	})

	channel := realtime.NewChannel(cfg.SocketURL, sessions, realtime.Options{
		ReconnectDelay:    cfg.ReconnectDelay,
		ReconnectMaxDelay: cfg.ReconnectMaxDelay,
		ReconnectAttempts: cfg.ReconnectAttempts,
	}, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Sessions: sessions,
		API:      client,
		Channel:  channel,
	}

	app.Auth = controller.NewAuthController(client, sessions, validate, logger)
	app.Chat = controller.NewChatController(client, channel, sessions, validate, controller.ChatOptions{
		RetentionDays: cfg.RetentionDays,
		PollInterval:  cfg.PollInterval,
	}, logger)
	app.Direct = controller.NewDirectController(client, channel, sessions, validate, logger)
	app.Blog = controller.NewBlogController(client, channel, sessions, validate, logger)
	app.Notifications = controller.NewNotificationController(client, channel, sessions, logger)
	app.Admin = controller.NewAdminController(client, channel, sessions, validate, logger)
	app.Directory = controller.NewDirectoryController(client, logger)

	return app, nil
}

// banner prints a dismissible-style failure line. Nothing the commands do is
// fatal to the process; the shell stays usable.
func banner(action string, err error) {
	fmt.Fprintf(os.Stderr, "✗ failed to %s: %v\n", action, err)
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	var app *App

	root := &cobra.Command{
		Use:           "techg",
		Short:         "TechG student community client",
		Long:          "Command-line client for the TechG student community platform:\nchat, blog, notifications, member directory and admin console.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			app, err = NewApp()
			return err
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newLoginCmd(&app),
		newRegisterCmd(&app),
		newLogoutCmd(&app),
		newWhoamiCmd(&app),
		newProfileCmd(&app),
		newChatCmd(&app),
		newDirectCmd(&app),
		newBlogCmd(&app),
		newNotificationsCmd(&app),
		newDirectoryCmd(&app),
		newAdminCmd(&app),
	)

	return root
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}
