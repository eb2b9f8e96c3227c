package controller

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/techg-platform/techg-client/internal/api"
	"github.com/techg-platform/techg-client/internal/model"
	"github.com/techg-platform/techg-client/internal/msgsync"
	"github.com/techg-platform/techg-client/internal/observability"
	"github.com/techg-platform/techg-client/internal/realtime"
	"github.com/techg-platform/techg-client/internal/session"
)

// ChatOptions tunes retention and the polling fallback.
type ChatOptions struct {
	RetentionDays int
	PollInterval  time.Duration
}

func (o ChatOptions) withDefaults() ChatOptions {
	if o.RetentionDays <= 0 {
		o.RetentionDays = 30
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	return o
}

// ChatController owns the group-chat view state. Messages reach it on three
// racing paths - optimistic inserts, HTTP confirmations and channel
// broadcasts - and every one of them is funneled through the msgsync
// primitives under one mutex.
type ChatController struct {
	api      *api.Client
	channel  Realtime
	sessions *session.Store
	validate *validator.Validate
	logger   zerolog.Logger
	tracer   trace.Tracer
	opts     ChatOptions

	mu       sync.Mutex
	list     *msgsync.List
	typing   map[string]time.Time
	onUpdate func()

	refresher  *msgsync.Refresher
	pollCancel context.CancelFunc
}

// NewChatController constructs the chat controller and wires its event
// subscriptions. Start must be called to hydrate and begin listening.
func NewChatController(client *api.Client, channel Realtime, sessions *session.Store, validate *validator.Validate, opts ChatOptions, logger zerolog.Logger) *ChatController {
	c := &ChatController{
		api:      client,
		channel:  channel,
		sessions: sessions,
		validate: validate,
		logger:   logger.With().Str("component", "chat_controller").Logger(),
		tracer:   otel.Tracer("github.com/techg-platform/techg-client/internal/controller/chat"),
		opts:     opts.withDefaults(),
		list:     msgsync.NewList(),
		typing:   make(map[string]time.Time),
	}
	c.refresher = msgsync.NewRefresher(c.refresh)
	return c
}

// OnUpdate registers the view invalidation callback.
func (c *ChatController) OnUpdate(fn func()) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// Start hydrates the message list, subscribes to the chat events and arms
// the polling fallback for whenever the channel is down.
func (c *ChatController) Start(ctx context.Context) error {
	c.channel.Subscribe(realtime.EventNewMessage, c.handleCreated)
	c.channel.Subscribe(realtime.EventMessageEdited, c.handleEdited)
	c.channel.Subscribe(realtime.EventMessageDeleted, c.handleDeleted)
	c.channel.Subscribe(realtime.EventMessageReaction, c.handleReacted)
	c.channel.Subscribe(realtime.EventMessageReported, c.handleReported)
	c.channel.Subscribe(realtime.EventUserTyping, c.handleTyping)

	c.channel.OnStateChange(func(connected bool) {
		if connected {
			c.stopPolling()
			go func() {
				if err := c.refresher.Trigger(context.Background()); err != nil {
					c.logger.Warn().Err(err).Msg("refresh after reconnect failed")
				}
			}()
			return
		}
		c.startPolling()
	})

	if !c.channel.Connected() {
		c.startPolling()
	}

	return c.refresher.Trigger(ctx)
}

// Stop cancels the polling fallback.
func (c *ChatController) Stop() {
	c.stopPolling()
}

// Messages returns the display-ordered, retention-filtered view state.
func (c *ChatController) Messages() []model.Message {
	c.mu.Lock()
	snapshot := c.list.Snapshot()
	c.mu.Unlock()

	return msgsync.FilterRetained(snapshot, time.Now(), c.opts.RetentionDays)
}

// Send performs an optimistic insert, confirms it against the HTTP
// response and announces the message on the channel. On failure exactly the
// optimistic entry is rolled back, keyed by its client id.
func (c *ChatController) Send(ctx context.Context, req model.MessageSendRequest) (model.Message, error) {
	if err := c.validate.Struct(req); err != nil {
		return model.Message{}, err
	}

	self := c.sessions.User()
	if self == nil {
		return model.Message{}, ErrNoSession
	}

	spanCtx, span := c.tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.String("chat.sender_id", self.ID),
	))
	defer span.End()

	optimistic := model.Message{
		SenderID:   self.ID,
		SenderName: self.Name,
		SenderRole: self.Role,
		Content:    req.Content,
		ReplyTo:    req.ReplyTo,
		MediaURL:   req.MediaURL,
		MediaType:  req.MediaType,
		CreatedAt:  time.Now(),
	}

	c.mu.Lock()
	clientID := c.list.AddOptimistic(optimistic)
	c.mu.Unlock()
	c.invalidate()

	var confirmed model.Message
	if err := c.api.Post(spanCtx, "/chat", req, &confirmed); err != nil {
		span.RecordError(err)
		c.mu.Lock()
		c.list.Rollback(clientID)
		c.mu.Unlock()
		c.invalidate()
		return model.Message{}, err
	}

	c.mu.Lock()
	c.list.Confirm(clientID, confirmed)
	c.mu.Unlock()
	c.invalidate()

	c.channel.Emit(realtime.EventNewMessage, confirmed)
	return confirmed, nil
}

// Edit rewrites a message's content.
func (c *ChatController) Edit(ctx context.Context, id, content string) error {
	req := model.MessageEditRequest{Content: content}
	if err := c.validate.Struct(req); err != nil {
		return err
	}

	var updated model.Message
	if err := c.api.Put(ctx, "/messages/"+id, req, &updated); err != nil {
		return err
	}

	c.apply(msgsync.Event{Kind: msgsync.Edited, Message: updated})
	c.channel.Emit(realtime.EventMessageEdited, updated)
	return nil
}

// Delete removes a message.
func (c *ChatController) Delete(ctx context.Context, id string) error {
	if err := c.api.Delete(ctx, "/messages/"+id, nil); err != nil {
		return err
	}

	c.apply(msgsync.Event{Kind: msgsync.Deleted, ID: id})
	c.channel.Emit(realtime.EventMessageDeleted, map[string]string{"id": id})
	return nil
}

// React toggles the caller's reaction on a message.
func (c *ChatController) React(ctx context.Context, id, reaction string) error {
	req := model.MessageReactRequest{Reaction: reaction}
	if err := c.validate.Struct(req); err != nil {
		return err
	}

	var updated model.Message
	if err := c.api.Post(ctx, "/messages/"+id+"/react", req, &updated); err != nil {
		return err
	}

	c.apply(msgsync.Event{Kind: msgsync.Reacted, Message: updated})
	c.channel.Emit(realtime.EventMessageReaction, updated)
	return nil
}

// Report flags a message for moderation.
func (c *ChatController) Report(ctx context.Context, id string) error {
	if err := c.api.Post(ctx, "/messages/"+id+"/report", nil, nil); err != nil {
		return err
	}

	c.apply(msgsync.Event{Kind: msgsync.Reported, ID: id})
	c.channel.Emit(realtime.EventMessageReported, map[string]string{"id": id})
	return nil
}

// Upload pushes a media file through the backend's storage proxy and
// returns the reference to embed in a message.
func (c *ChatController) Upload(ctx context.Context, filename string, file io.Reader) (model.UploadResult, error) {
	var result model.UploadResult
	if err := c.api.Upload(ctx, "/chat/upload", "file", filename, file, &result); err != nil {
		return model.UploadResult{}, err
	}
	return result, nil
}

// Typing announces that the current user is composing. Fire-and-forget.
func (c *ChatController) Typing() {
	self := c.sessions.User()
	if self == nil {
		return
	}
	c.channel.Emit(realtime.EventUserTyping, map[string]string{
		"user_id": self.ID,
		"name":    self.Name,
	})
}

// TypingUsers lists users seen composing within the last few seconds.
func (c *ChatController) TypingUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-4 * time.Second)
	out := make([]string, 0, len(c.typing))
	for name, seen := range c.typing {
		if seen.After(cutoff) {
			out = append(out, name)
		} else {
			delete(c.typing, name)
		}
	}
	return out
}

// Refresh re-fetches the list through the single-flight gate. Both the poll
// timer and user-initiated reloads land here.
func (c *ChatController) Refresh(ctx context.Context) error {
	return c.refresher.Trigger(ctx)
}

func (c *ChatController) refresh(ctx context.Context) error {
	var msgs []model.Message
	if err := c.api.Get(ctx, "/chat", &msgs); err != nil {
		return err
	}

	retained := msgsync.FilterRetained(msgs, time.Now(), c.opts.RetentionDays)

	c.mu.Lock()
	c.list.Replace(retained)
	c.mu.Unlock()
	c.invalidate()

	observability.PollRefreshes().Inc()
	return nil
}

func (c *ChatController) startPolling() {
	c.mu.Lock()
	if c.pollCancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.opts.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.refresher.Trigger(ctx); err != nil {
					c.logger.Debug().Err(err).Msg("poll refresh failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *ChatController) stopPolling() {
	c.mu.Lock()
	cancel := c.pollCancel
	c.pollCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *ChatController) handleCreated(data json.RawMessage) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn().Err(err).Msg("invalid new-message payload")
		return
	}

	if c.apply(msgsync.Event{Kind: msgsync.Created, Message: msg}) {
		observability.MessagesMerged().Inc()
	}
}

func (c *ChatController) handleEdited(data json.RawMessage) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn().Err(err).Msg("invalid message-edited payload")
		return
	}
	c.apply(msgsync.Event{Kind: msgsync.Edited, Message: msg})
}

func (c *ChatController) handleDeleted(data json.RawMessage) {
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		c.logger.Warn().Err(err).Msg("invalid message-deleted payload")
		return
	}
	c.apply(msgsync.Event{Kind: msgsync.Deleted, ID: ref.ID})
}

func (c *ChatController) handleReacted(data json.RawMessage) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn().Err(err).Msg("invalid message-reaction payload")
		return
	}
	c.apply(msgsync.Event{Kind: msgsync.Reacted, Message: msg})
}

func (c *ChatController) handleReported(data json.RawMessage) {
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		c.logger.Warn().Err(err).Msg("invalid message-reported payload")
		return
	}
	c.apply(msgsync.Event{Kind: msgsync.Reported, ID: ref.ID})
}

func (c *ChatController) handleTyping(data json.RawMessage) {
	var payload struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	self := c.sessions.User()
	if self != nil && payload.UserID == self.ID {
		return
	}

	c.mu.Lock()
	c.typing[payload.Name] = time.Now()
	c.mu.Unlock()
	c.invalidate()
}

func (c *ChatController) apply(event msgsync.Event) bool {
	c.mu.Lock()
	changed := c.list.Apply(event)
	c.mu.Unlock()

	if changed {
		c.invalidate()
	}
	return changed
}

func (c *ChatController) invalidate() {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}
