package controller

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/techg-platform/techg-client/internal/api"
	"github.com/techg-platform/techg-client/internal/model"
	"github.com/techg-platform/techg-client/internal/realtime"
	"github.com/techg-platform/techg-client/internal/session"
)

// NotificationController owns the notification list and the unread counter
// behind the shell's bell.
type NotificationController struct {
	api      *api.Client
	channel  Realtime
	sessions *session.Store
	logger   zerolog.Logger

	mu       sync.Mutex
	items    []model.Notification
	index    map[string]int
	onUpdate func()
}

// NewNotificationController constructs the notification controller.
func NewNotificationController(client *api.Client, channel Realtime, sessions *session.Store, logger zerolog.Logger) *NotificationController {
	return &NotificationController{
		api:      client,
		channel:  channel,
		sessions: sessions,
		logger:   logger.With().Str("component", "notification_controller").Logger(),
		index:    make(map[string]int),
	}
}

// OnUpdate registers the view invalidation callback.
func (c *NotificationController) OnUpdate(fn func()) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// Start hydrates the list and subscribes to pushed notifications.
func (c *NotificationController) Start(ctx context.Context) error {
	c.channel.Subscribe(realtime.EventNewNotification, c.handleCreated)
	return c.Refresh(ctx)
}

// Refresh re-fetches the notification list.
func (c *NotificationController) Refresh(ctx context.Context) error {
	var items []model.Notification
	if err := c.api.Get(ctx, "/notifications", &items); err != nil {
		return err
	}

	c.mu.Lock()
	c.items = items
	c.reindex()
	c.mu.Unlock()
	c.invalidate()

	return nil
}

// Notifications returns the cached list, newest first.
func (c *NotificationController) Notifications() []model.Notification {
	c.mu.Lock()
	out := make([]model.Notification, len(c.items))
	copy(out, c.items)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Unread counts notifications the current user has not read. No session
// means nothing to count.
func (c *NotificationController) Unread() int {
	self := c.sessions.User()
	if self == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return model.UnreadCount(c.items, self.ID)
}

// MarkRead records the current user in the notification's read set. Marking
// an already-read notification changes nothing, locally or remotely.
func (c *NotificationController) MarkRead(ctx context.Context, id string) error {
	self := c.sessions.User()
	if self == nil {
		return ErrNoSession
	}

	if err := c.api.Put(ctx, "/notifications/"+id+"/read", nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	if pos, ok := c.index[id]; ok && !c.items[pos].ReadByUser(self.ID) {
		c.items[pos].ReadBy = append(c.items[pos].ReadBy, self.ID)
	}
	c.mu.Unlock()
	c.invalidate()

	return nil
}

// Delete removes a notification.
func (c *NotificationController) Delete(ctx context.Context, id string) error {
	if err := c.api.Delete(ctx, "/notifications/"+id, nil); err != nil {
		return err
	}

	c.mu.Lock()
	if pos, ok := c.index[id]; ok {
		c.items = append(c.items[:pos], c.items[pos+1:]...)
		c.reindex()
	}
	c.mu.Unlock()
	c.invalidate()

	return nil
}

func (c *NotificationController) handleCreated(data json.RawMessage) {
	var item model.Notification
	if err := json.Unmarshal(data, &item); err != nil {
		c.logger.Warn().Err(err).Msg("invalid new-notification payload")
		return
	}

	c.mu.Lock()
	if _, exists := c.index[item.ID]; exists {
		c.mu.Unlock()
		return
	}
	c.index[item.ID] = len(c.items)
	c.items = append(c.items, item)
	c.mu.Unlock()
	c.invalidate()
}

// reindex rebuilds the id index; callers hold the mutex.
func (c *NotificationController) reindex() {
	c.index = make(map[string]int, len(c.items))
	for i, item := range c.items {
		c.index[item.ID] = i
	}
}

func (c *NotificationController) invalidate() {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}
