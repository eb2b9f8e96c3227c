package controller

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/techg-platform/techg-client/internal/api"
	"github.com/techg-platform/techg-client/internal/model"
	"github.com/techg-platform/techg-client/internal/realtime"
	"github.com/techg-platform/techg-client/internal/session"
)

// AdminController drives the admin console: user management and platform
// broadcasts. The backend enforces authorization; this controller only
// refuses to issue calls when no admin is logged in.
type AdminController struct {
	api      *api.Client
	channel  Realtime
	sessions *session.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewAdminController constructs the admin controller.
func NewAdminController(client *api.Client, channel Realtime, sessions *session.Store, validate *validator.Validate, logger zerolog.Logger) *AdminController {
	return &AdminController{
		api:      client,
		channel:  channel,
		sessions: sessions,
		validate: validate,
		logger:   logger.With().Str("component", "admin_controller").Logger(),
	}
}

// Users lists every account on the platform.
func (c *AdminController) Users(ctx context.Context) ([]model.User, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}

	var users []model.User
	if err := c.api.Get(ctx, "/admin/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRole changes an account's role.
func (c *AdminController) UpdateRole(ctx context.Context, userID, role string) (model.User, error) {
	if err := c.requireAdmin(); err != nil {
		return model.User{}, err
	}

	var user model.User
	payload := map[string]string{"role": role}
	if err := c.api.Put(ctx, "/admin/users/"+userID, payload, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// Remove deletes an account.
func (c *AdminController) Remove(ctx context.Context, userID string) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	return c.api.Delete(ctx, "/admin/users/"+userID, nil)
}

// Broadcast publishes a notification to every user.
func (c *AdminController) Broadcast(ctx context.Context, req model.NotificationCreateRequest) (model.Notification, error) {
	if err := c.requireAdmin(); err != nil {
		return model.Notification{}, err
	}
	if err := c.validate.Struct(req); err != nil {
		return model.Notification{}, err
	}

	var created model.Notification
	if err := c.api.Post(ctx, "/notifications", req, &created); err != nil {
		return model.Notification{}, err
	}

	c.channel.Emit(realtime.EventNewNotification, created)
	return created, nil
}

// Presence announces the admin's availability to students waiting in direct
// chat. Fire-and-forget.
func (c *AdminController) Presence() {
	self := c.sessions.User()
	if self == nil || !self.IsAdmin() {
		return
	}
	c.channel.Emit(realtime.EventAdminOnline, map[string]string{
		"user_id": self.ID,
		"name":    self.Name,
	})
}

func (c *AdminController) requireAdmin() error {
	self := c.sessions.User()
	if self == nil {
		return ErrNoSession
	}
	if !self.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}
