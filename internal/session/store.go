package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/techg-platform/techg-client/internal/model"
)

// Session is the current identity snapshot handed to change observers.
type Session struct {
	Token string
	User  *model.User
}

// Store owns the bearer credential and resolved user. It is constructed once
// and injected into every controller; nothing else holds session state.
//
// The token is the only durable client state: it is persisted to a single
// file and everything else is refetched on startup.
type Store struct {
	path   string
	logger zerolog.Logger

	mu       sync.RWMutex
	token    string
	user     *model.User
	handlers []func(Session)
}

// NewStore creates a session store persisting the token at path.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// Load restores a previously persisted token. Tokens whose expiry has
// already passed are discarded without contacting the backend.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return nil
	}

	if expired(token) {
		s.logger.Debug().Msg("discarding expired token")
		_ = os.Remove(s.path)
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	return nil
}

// Token returns the stored bearer credential, or empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the resolved account, or nil when identity is unknown.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetSession stores and persists a fresh credential with its account.
func (s *Store) SetSession(token string, user model.User) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetUser updates the resolved account without touching the credential.
func (s *Store) SetUser(user model.User) {
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.notify()
}

// Clear drops the credential and account, removing the persisted token.
// Calling it while already logged out is a no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	empty := s.token == "" && s.user == nil
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if empty {
		return
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Msg("failed to remove persisted token")
	}

	s.notify()
}

// OnChange registers an observer invoked after every session mutation.
func (s *Store) OnChange(fn func(Session)) {
	s.mu.Lock()
	s.handlers = append(s.handlers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	snapshot := Session{Token: s.token, User: s.user}
	handlers := make([]func(Session), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, fn := range handlers {
		fn(snapshot)
	}
}

// expired checks the token's exp claim without verifying the signature;
// signature validation is the backend's job. Opaque tokens are kept.
func expired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}

	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false
	}

	return expiry.Before(time.Now())
}
