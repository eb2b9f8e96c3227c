package controller

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/techg-platform/techg-client/internal/api"
	"github.com/techg-platform/techg-client/internal/model"
	"github.com/techg-platform/techg-client/internal/msgsync"
	"github.com/techg-platform/techg-client/internal/realtime"
	"github.com/techg-platform/techg-client/internal/session"
)

// DirectController owns the direct-message view: students writing to the
// admin team and admins replying. Conversations are derived from the flat
// list on every read, never stored.
type DirectController struct {
	api      *api.Client
	channel  Realtime
	sessions *session.Store
	validate *validator.Validate
	logger   zerolog.Logger

	mu       sync.Mutex
	list     *msgsync.List
	onUpdate func()

	refresher *msgsync.Refresher
}

// NewDirectController constructs the direct-message controller.
func NewDirectController(client *api.Client, channel Realtime, sessions *session.Store, validate *validator.Validate, logger zerolog.Logger) *DirectController {
	c := &DirectController{
		api:      client,
		channel:  channel,
		sessions: sessions,
		validate: validate,
		logger:   logger.With().Str("component", "direct_controller").Logger(),
		list:     msgsync.NewList(),
	}
	c.refresher = msgsync.NewRefresher(c.refresh)
	return c
}

// OnUpdate registers the view invalidation callback.
func (c *DirectController) OnUpdate(fn func()) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// Start hydrates the list and subscribes to broadcast messages, keeping only
// the direct ones that involve the current user.
func (c *DirectController) Start(ctx context.Context) error {
	c.channel.Subscribe(realtime.EventNewMessage, c.handleCreated)
	return c.refresher.Trigger(ctx)
}

// Refresh re-fetches the direct message list.
func (c *DirectController) Refresh(ctx context.Context) error {
	return c.refresher.Trigger(ctx)
}

// Conversations groups the flat list by counterpart, newest first.
func (c *DirectController) Conversations() []msgsync.Conversation {
	self := c.sessions.User()
	if self == nil {
		return nil
	}

	c.mu.Lock()
	snapshot := c.list.Snapshot()
	c.mu.Unlock()

	return msgsync.Conversations(self.ID, snapshot)
}

// Send delivers a direct message to the given receiver, optimistically.
func (c *DirectController) Send(ctx context.Context, receiverID, content string) (model.Message, error) {
	req := model.MessageSendRequest{Content: content, ReceiverID: receiverID}
	if err := c.validate.Struct(req); err != nil {
		return model.Message{}, err
	}

	self := c.sessions.User()
	if self == nil {
		return model.Message{}, ErrNoSession
	}

	optimistic := model.Message{
		SenderID:   self.ID,
		SenderName: self.Name,
		SenderRole: self.Role,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now(),
	}

	c.mu.Lock()
	clientID := c.list.AddOptimistic(optimistic)
	c.mu.Unlock()
	c.invalidate()

	path := "/messages/direct"
	if self.IsAdmin() {
		path = "/messages/admin/direct"
	}

	var confirmed model.Message
	if err := c.api.Post(ctx, path, req, &confirmed); err != nil {
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

// MarkRead records that the current user has read a conversation: one HTTP
// call plus a local state patch. Repeating it does not change the outcome.
func (c *DirectController) MarkRead(ctx context.Context, partnerID string) error {
	self := c.sessions.User()
	if self == nil {
		return ErrNoSession
	}

	if err := c.api.Put(ctx, "/messages/direct/"+partnerID+"/read", nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	for _, msg := range c.list.Snapshot() {
		if msg.SenderID != partnerID || msg.ReadByUser(self.ID) {
			continue
		}
		msg.ReadBy = append(msg.ReadBy, self.ID)
		c.list.Apply(msgsync.Event{Kind: msgsync.Edited, Message: msg})
	}
	c.mu.Unlock()
	c.invalidate()

	return nil
}

// Unread totals the unread counts across all conversations, for the shell's
// badge.
func (c *DirectController) Unread() int {
	total := 0
	for _, conv := range c.Conversations() {
		total += conv.Unread
	}
	return total
}

func (c *DirectController) refresh(ctx context.Context) error {
	var msgs []model.Message
	if err := c.api.Get(ctx, "/messages/direct", &msgs); err != nil {
		return err
	}

	c.mu.Lock()
	c.list.Replace(msgs)
	c.mu.Unlock()
	c.invalidate()

	return nil
}

func (c *DirectController) handleCreated(data json.RawMessage) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn().Err(err).Msg("invalid new-message payload")
		return
	}

	if !msg.IsDirect() {
		return
	}

	self := c.sessions.User()
	if self == nil || (msg.SenderID != self.ID && msg.ReceiverID != self.ID) {
		return
	}

	c.mu.Lock()
	changed := c.list.Apply(msgsync.Event{Kind: msgsync.Created, Message: msg})
	c.mu.Unlock()

	if changed {
		c.invalidate()
	}
}

func (c *DirectController) invalidate() {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}
