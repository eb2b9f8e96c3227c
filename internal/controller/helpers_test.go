package controller_test

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/techg-platform/techg-client/internal/api"
	"github.com/techg-platform/techg-client/internal/realtime"
	"github.com/techg-platform/techg-client/internal/session"
)

// fakeChannel satisfies the controllers' Realtime dependency without a
// network. Pushed events run their handlers synchronously, in order.
type fakeChannel struct {
	mu        sync.Mutex
	handlers  map[string][]realtime.Handler
	emitted   []realtime.Frame
	stateFns  []func(bool)
	connected bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[string][]realtime.Handler), connected: true}
}

func (f *fakeChannel) Subscribe(event string, handler realtime.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = append(f.handlers[event], handler)
}

func (f *fakeChannel) Emit(event string, payload interface{}) {
	frame := realtime.Frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		frame.Data = data
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitted = append(f.emitted, frame)
}

func (f *fakeChannel) OnStateChange(fn func(connected bool)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateFns = append(f.stateFns, fn)
}

func (f *fakeChannel) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// push delivers an event to the subscribed handlers, as the dispatch
// goroutine would.
func (f *fakeChannel) push(t *testing.T, event string, payload interface{}) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	f.mu.Lock()
	handlers := make([]realtime.Handler, len(f.handlers[event]))
	copy(handlers, f.handlers[event])
	f.mu.Unlock()

	for _, handler := range handlers {
		handler(data)
	}
}

func (f *fakeChannel) emittedEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.emitted))
	for i, frame := range f.emitted {
		out[i] = frame.Event
	}
	return out
}

func startBackend(t *testing.T, configure func(app *fiber.App)) string {
	t.Helper()

	app := fiber.New()
	configure(app)

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

	return "http://" + listener.Addr().String()
}

func envelope(data interface{}) fiber.Map {
	return fiber.Map{"success": true, "data": data}
}

func newTestSessions(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(filepath.Join(t.TempDir(), "token"), zerolog.Nop())
}

func newTestClient(t *testing.T, baseURL string, sessions *session.Store) *api.Client {
	t.Helper()
	return api.NewClient(baseURL, 5*time.Second, sessions, zerolog.Nop())
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}
