package controller_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/techg-platform/techg-client/internal/controller"
	"github.com/techg-platform/techg-client/internal/model"
	"github.com/techg-platform/techg-client/internal/realtime"
)

func TestNotificationUnreadCountsOnlyUnread(t *testing.T) {
	now := time.Now().UTC()
	baseURL := startBackend(t, func(app *fiber.App) {
		app.Get("/notifications", func(c *fiber.Ctx) error {
			return c.JSON(envelope([]model.Notification{
				{ID: "n-1", Title: "Seen", ReadBy: []string{"u-self"}, CreatedAt: now},
				{ID: "n-2", Title: "Unseen", CreatedAt: now.Add(time.Minute)},
				{ID: "n-3", Title: "Seen by someone else", ReadBy: []string{"u-2"}, CreatedAt: now.Add(2 * time.Minute)},
			}))
		})
	})

	sessions := newTestSessions(t)
	require.NoError(t, sessions.SetSession("jwt-test", model.User{ID: "u-self"}))
	client := newTestClient(t, baseURL, sessions)

	channel := newFakeChannel()
	notifications := controller.NewNotificationController(client, channel, sessions, zerolog.Nop())
	require.NoError(t, notifications.Start(context.Background()))

	require.Equal(t, 2, notifications.Unread())

	items := notifications.Notifications()
	require.Len(t, items, 3)
	require.Equal(t, "n-3", items[0].ID, "newest first")
}

func TestNotificationMarkReadIsIdempotent(t *testing.T) {
	var readCalls atomic.Int32
	baseURL := startBackend(t, func(app *fiber.App) {
		app.Get("/notifications", func(c *fiber.Ctx) error {
			return c.JSON(envelope([]model.Notification{
				{ID: "n-1", Title: "Event", CreatedAt: time.Now().UTC()},
			}))
		})
		app.Put("/notifications/:id/read", func(c *fiber.Ctx) error {
			readCalls.Add(1)
			return c.JSON(fiber.Map{"success": true})
		})
	})

	sessions := newTestSessions(t)
	require.NoError(t, sessions.SetSession("jwt-test", model.User{ID: "u-self"}))
	client := newTestClient(t, baseURL, sessions)

	notifications := controller.NewNotificationController(client, newFakeChannel(), sessions, zerolog.Nop())
	require.NoError(t, notifications.Start(context.Background()))
	require.Equal(t, 1, notifications.Unread())

	require.NoError(t, notifications.MarkRead(context.Background(), "n-1"))
	require.NoError(t, notifications.MarkRead(context.Background(), "n-1"))

	require.Equal(t, 0, notifications.Unread())
	items := notifications.Notifications()
	require.Equal(t, []string{"u-self"}, items[0].ReadBy, "read set must not grow on repeat")
	require.Equal(t, int32(2), readCalls.Load())
}

func TestNotificationPushedEventIsDeduplicated(t *testing.T) {
	baseURL := startBackend(t, func(app *fiber.App) {
		app.Get("/notifications", func(c *fiber.Ctx) error {
			return c.JSON(envelope([]model.Notification{}))
		})
	})

	sessions := newTestSessions(t)
	require.NoError(t, sessions.SetSession("jwt-test", model.User{ID: "u-self"}))
	client := newTestClient(t, baseURL, sessions)

	channel := newFakeChannel()
	notifications := controller.NewNotificationController(client, channel, sessions, zerolog.Nop())
	require.NoError(t, notifications.Start(context.Background()))

	pushed := model.Notification{ID: "n-9", Title: "Maintenance tonight", CreatedAt: time.Now().UTC()}
	channel.push(t, realtime.EventNewNotification, pushed)
	channel.push(t, realtime.EventNewNotification, pushed)

	require.Len(t, notifications.Notifications(), 1)
	require.Equal(t, 1, notifications.Unread())
}

func TestNotificationMarkReadWithoutSession(t *testing.T) {
	baseURL := startBackend(t, func(app *fiber.App) {})

	sessions := newTestSessions(t)
	client := newTestClient(t, baseURL, sessions)
	notifications := controller.NewNotificationController(client, newFakeChannel(), sessions, zerolog.Nop())

	require.ErrorIs(t, notifications.MarkRead(context.Background(), "n-1"), controller.ErrNoSession)
}
