package controller

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/techg-platform/techg-client/internal/api"
	"github.com/techg-platform/techg-client/internal/model"
	"github.com/techg-platform/techg-client/internal/session"
)

// AuthController owns the login, registration and profile flows and keeps
// the session store in step with the backend's view of the account.
type AuthController struct {
	api      *api.Client
	sessions *session.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewAuthController constructs the auth controller.
func NewAuthController(client *api.Client, sessions *session.Store, validate *validator.Validate, logger zerolog.Logger) *AuthController {
	return &AuthController{
		api:      client,
		sessions: sessions,
		validate: validate,
		logger:   logger.With().Str("component", "auth_controller").Logger(),
	}
}

// Login exchanges credentials for a session.
func (c *AuthController) Login(ctx context.Context, creds model.Credentials) (model.User, error) {
	if err := c.validate.Struct(creds); err != nil {
		return model.User{}, err
	}

	var resp model.AuthResponse
	if err := c.api.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return model.User{}, err
	}

	if err := c.sessions.SetSession(resp.Token, resp.User); err != nil {
		return model.User{}, fmt.Errorf("store session: %w", err)
	}

	c.logger.Info().Str("user_id", resp.User.ID).Msg("logged in")
	return resp.User, nil
}

// Register creates an account and logs straight into it.
func (c *AuthController) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	if err := c.validate.Struct(reg); err != nil {
		return model.User{}, err
	}

	var resp model.AuthResponse
	if err := c.api.Post(ctx, "/auth/register", reg, &resp); err != nil {
		return model.User{}, err
	}

	if err := c.sessions.SetSession(resp.Token, resp.User); err != nil {
		return model.User{}, fmt.Errorf("store session: %w", err)
	}

	return resp.User, nil
}

// ResolveUser turns the persisted token back into an account. A token the
// backend cannot resolve forces a logout: the credential is cleared and the
// user stays nil.
func (c *AuthController) ResolveUser(ctx context.Context) (*model.User, error) {
	if c.sessions.Token() == "" {
		return nil, nil
	}

	var user model.User
	if err := c.api.Get(ctx, "/auth/me", &user); err != nil {
		c.sessions.Clear()
		return nil, err
	}

	c.sessions.SetUser(user)
	return &user, nil
}

// UpdateProfile pushes the editable profile fields and refreshes the stored
// account.
func (c *AuthController) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error) {
	if err := c.validate.Struct(update); err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := c.api.Put(ctx, "/auth/profile", update, &user); err != nil {
		return model.User{}, err
	}

	c.sessions.SetUser(user)
	return user, nil
}

// Logout drops the session locally. The backend keeps no session state
// beyond the token itself.
func (c *AuthController) Logout() {
	c.sessions.Clear()
}
