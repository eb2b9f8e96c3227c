package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/techg-platform/techg-client/internal/api"
	"github.com/techg-platform/techg-client/internal/controller"
	"github.com/techg-platform/techg-client/internal/model"
	"github.com/techg-platform/techg-client/internal/realtime"
	"github.com/techg-platform/techg-client/internal/session"
)

const validToken = "jwt-valid"

// stubBackend is an in-process stand-in for the TechG API: REST endpoints
// wrapped in the response envelope plus a websocket fan-out of every
// mutation, the way the real backend notifies other clients.
type stubBackend struct {
	mu       sync.Mutex
	messages []model.Message
	nextID   int
	conns    []*fiberws.Conn
}

func (b *stubBackend) storeMessage(senderID, senderName, content string) model.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	msg := model.Message{
		ID:         fmt.Sprintf("m-%d", b.nextID),
		SenderID:   senderID,
		SenderName: senderName,
		SenderRole: "student",
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	b.messages = append(b.messages, msg)
	return msg
}

func (b *stubBackend) broadcast(event string, payload interface{}) {
	b.mu.Lock()
	conns := make([]*fiberws.Conn, len(b.conns))
	copy(conns, b.conns)
	b.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame := realtime.Frame{Event: event, Data: data}
	for _, conn := range conns {
		_ = conn.WriteJSON(frame)
	}
}

func (b *stubBackend) addConn(conn *fiberws.Conn) {
	b.mu.Lock()
	b.conns = append(b.conns, conn)
	b.mu.Unlock()
}

func (b *stubBackend) removeConn(conn *fiberws.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range b.conns {
		if c == conn {
			b.conns = append(b.conns[:i], b.conns[i+1:]...)
			return
		}
	}
}

func startStubBackend(t *testing.T) (*stubBackend, string) {
	t.Helper()

	backend := &stubBackend{}
	app := fiber.New()

	requireAuth := func(c *fiber.Ctx) error {
		if c.Get("Authorization") != "Bearer "+validToken {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid token",
			})
		}
		return c.Next()
	}

	app.Post("/auth/login", func(c *fiber.Ctx) error {
		var creds model.Credentials
		if err := c.BodyParser(&creds); err != nil {
			return err
		}
		if creds.Password != "secret123" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid credentials",
			})
		}
		return c.JSON(fiber.Map{"success": true, "data": model.AuthResponse{
			Token: validToken,
			User:  model.User{ID: "u-1", Name: "Rani", Email: creds.Email, Role: "student", JoinedAt: time.Now().UTC()},
		}})
	})

	app.Get("/auth/me", requireAuth, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "data": model.User{
			ID: "u-1", Name: "Rani", Email: "rani@techg.id", Role: "student", JoinedAt: time.Now().UTC(),
		}})
	})

	app.Get("/chat", requireAuth, func(c *fiber.Ctx) error {
		backend.mu.Lock()
		msgs := make([]model.Message, len(backend.messages))
		copy(msgs, backend.messages)
		backend.mu.Unlock()
		return c.JSON(fiber.Map{"success": true, "data": msgs})
	})

	app.Post("/chat", requireAuth, func(c *fiber.Ctx) error {
		var req model.MessageSendRequest
		if err := c.BodyParser(&req); err != nil {
			return err
		}
		msg := backend.storeMessage("u-1", "Rani", req.Content)
		// Broadcast first so the client sees the race the real backend
		// produces: channel delivery can beat the HTTP response.
		backend.broadcast(realtime.EventNewMessage, msg)
		return c.JSON(fiber.Map{"success": true, "data": msg})
	})

	app.Use("/socket", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/socket", fiberws.New(func(conn *fiberws.Conn) {
		backend.addConn(conn)
		defer backend.removeConn(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	t.Cleanup(func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	})

	return backend, listener.Addr().String()
}

type clientStack struct {
	sessions *session.Store
	auth     *controller.AuthController
	chat     *controller.ChatController
	channel  *realtime.Channel
}

func newClientStack(t *testing.T, addr string) *clientStack {
	t.Helper()

	logger := zerolog.Nop()
	sessions := session.NewStore(filepath.Join(t.TempDir(), "token"), logger)
	client := api.NewClient("http://"+addr, 5*time.Second, sessions, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	channel := realtime.NewChannel("ws://"+addr+"/socket", sessions, realtime.Options{
		ReconnectDelay:    20 * time.Millisecond,
		ReconnectMaxDelay: 50 * time.Millisecond,
		ReconnectAttempts: 3,
	}, logger)
	t.Cleanup(channel.Close)

	return &clientStack{
		sessions: sessions,
		auth:     controller.NewAuthController(client, sessions, validate, logger),
		chat:     controller.NewChatController(client, channel, sessions, validate, controller.ChatOptions{}, logger),
		channel:  channel,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestLoginSendAndBroadcastEndToEnd(t *testing.T) {
	_, addr := startStubBackend(t)

	sender := newClientStack(t, addr)
	observer := newClientStack(t, addr)

	ctx := context.Background()

	// Step 1: both clients authenticate.
	_, err := sender.auth.Login(ctx, model.Credentials{Email: "rani@techg.id", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, validToken, sender.sessions.Token())

	_, err = observer.auth.Login(ctx, model.Credentials{Email: "budi@techg.id", Password: "secret123"})
	require.NoError(t, err)

	// Step 2: both connect their realtime channels and hydrate chat.
	require.NoError(t, sender.channel.Connect(ctx))
	require.NoError(t, observer.channel.Connect(ctx))
	require.NoError(t, sender.chat.Start(ctx))
	require.NoError(t, observer.chat.Start(ctx))
	defer sender.chat.Stop()
	defer observer.chat.Stop()

	// Step 3: the sender posts a message. The backend broadcasts before the
	// HTTP confirmation returns, so the optimistic entry, the broadcast and
	// the confirmation all race toward the same list.
	sent, err := sender.chat.Send(ctx, model.MessageSendRequest{Content: "hello from the e2e test"})
	require.NoError(t, err)
	require.False(t, strings.HasPrefix(sent.ID, model.LocalIDPrefix))

	// Step 4: the sender ends up with exactly one copy.
	waitFor(t, 3*time.Second, func() bool {
		msgs := sender.chat.Messages()
		return len(msgs) == 1 && msgs[0].ID == sent.ID
	})
	msgs := sender.chat.Messages()
	require.Len(t, msgs, 1)
	require.False(t, msgs[0].IsLocal())

	// Step 5: the observer receives the broadcast copy.
	waitFor(t, 3*time.Second, func() bool {
		msgs := observer.chat.Messages()
		return len(msgs) == 1 && msgs[0].ID == sent.ID
	})
}

func TestRejectedTokenForcesLogout(t *testing.T) {
	_, addr := startStubBackend(t)

	stack := newClientStack(t, addr)
	ctx := context.Background()

	// A stale token the backend no longer accepts.
	require.NoError(t, stack.sessions.SetSession("jwt-stale", model.User{ID: "u-1"}))

	user, err := stack.auth.ResolveUser(ctx)
	require.Error(t, err)
	require.True(t, api.IsUnauthorized(err))
	require.Nil(t, user)
	require.Empty(t, stack.sessions.Token())
	require.Nil(t, stack.sessions.User())
}

func TestPersistedSessionSurvivesRestart(t *testing.T) {
	_, addr := startStubBackend(t)

	logger := zerolog.Nop()
	tokenPath := filepath.Join(t.TempDir(), "token")

	first := session.NewStore(tokenPath, logger)
	client := api.NewClient("http://"+addr, 5*time.Second, first, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())
	auth := controller.NewAuthController(client, first, validate, logger)

	_, err := auth.Login(context.Background(), model.Credentials{Email: "rani@techg.id", Password: "secret123"})
	require.NoError(t, err)

	// A fresh store against the same path is "the next launch".
	second := session.NewStore(tokenPath, logger)
	require.NoError(t, second.Load())
	require.Equal(t, validToken, second.Token())

	client2 := api.NewClient("http://"+addr, 5*time.Second, second, logger)
	auth2 := controller.NewAuthController(client2, second, validate, logger)

	user, err := auth2.ResolveUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "u-1", user.ID)
}
