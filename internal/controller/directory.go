package controller

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/techg-platform/techg-client/internal/api"
	"github.com/techg-platform/techg-client/internal/model"
)

// DirectoryController owns the member directory view. Search and filtering
// happen client-side over the cached list.
type DirectoryController struct {
	api    *api.Client
	logger zerolog.Logger

	mu    sync.Mutex
	users []model.User
}

// NewDirectoryController constructs the directory controller.
func NewDirectoryController(client *api.Client, logger zerolog.Logger) *DirectoryController {
	return &DirectoryController{
		api:    client,
		logger: logger.With().Str("component", "directory_controller").Logger(),
	}
}

// Refresh re-fetches the member list.
func (c *DirectoryController) Refresh(ctx context.Context) error {
	var users []model.User
	if err := c.api.Get(ctx, "/users", &users); err != nil {
		return err
	}

	c.mu.Lock()
	c.users = users
	c.mu.Unlock()

	return nil
}

// Users returns the cached directory sorted by name.
func (c *DirectoryController) Users() []model.User {
	c.mu.Lock()
	out := make([]model.User, len(c.users))
	copy(out, c.users)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Search filters the cached directory by name, email or role.
func (c *DirectoryController) Search(query string) []model.User {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.Users()
	}

	out := make([]model.User, 0)
	for _, user := range c.Users() {
		haystack := strings.ToLower(user.Name + " " + user.Email + " " + user.Role)
		if strings.Contains(haystack, query) {
			out = append(out, user)
		}
	}
	return out
}

// Admins returns the directory entries carrying the admin role, the targets
// available for direct messages.
func (c *DirectoryController) Admins() []model.User {
	out := make([]model.User, 0)
	for _, user := range c.Users() {
		if user.IsAdmin() {
			out = append(out, user)
		}
	}
	return out
}
