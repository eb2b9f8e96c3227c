package msgsync

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/techg-platform/techg-client/internal/model"
)

func serverMessage(id, content string, at time.Time) model.Message {
	return model.Message{
		ID:         id,
		SenderID:   "u-1",
		SenderName: "Rani",
		SenderRole: "student",
		Content:    content,
		CreatedAt:  at,
	}
}

func TestMergeIsIdempotentPerID(t *testing.T) {
	list := NewList()
	now := time.Now()

	require.True(t, list.Merge(serverMessage("m-1", "hello", now)))
	require.False(t, list.Merge(serverMessage("m-1", "hello again", now)))
	require.Equal(t, 1, list.Len())

	stored, ok := list.Get("m-1")
	require.True(t, ok)
	require.Equal(t, "hello", stored.Content)
}

func TestAddOptimisticAssignsLocalID(t *testing.T) {
	list := NewList()

	clientID := list.AddOptimistic(model.Message{Content: "pending", CreatedAt: time.Now()})
	require.True(t, strings.HasPrefix(clientID, model.LocalIDPrefix))

	stored, ok := list.Get(clientID)
	require.True(t, ok)
	require.True(t, stored.IsLocal())
}

func TestConfirmReplacesOptimisticEntryInPlace(t *testing.T) {
	list := NewList()
	now := time.Now()

	clientID := list.AddOptimistic(model.Message{Content: "pending", CreatedAt: now})
	list.Confirm(clientID, serverMessage("m-1", "pending", now))

	require.Equal(t, 1, list.Len())
	_, ok := list.Get(clientID)
	require.False(t, ok)

	confirmed, ok := list.Get("m-1")
	require.True(t, ok)
	require.False(t, confirmed.IsLocal())
}

func TestConfirmAfterBroadcastLeavesExactlyOneEntry(t *testing.T) {
	// The channel can deliver the new-message broadcast before the HTTP
	// response returns. Confirm must then drop the optimistic entry instead
	// of inserting a second copy.
	list := NewList()
	now := time.Now()

	clientID := list.AddOptimistic(model.Message{Content: "raced", CreatedAt: now})
	require.True(t, list.Merge(serverMessage("m-9", "raced", now)))

	list.Confirm(clientID, serverMessage("m-9", "raced", now))

	require.Equal(t, 1, list.Len())
	_, ok := list.Get(clientID)
	require.False(t, ok)
	_, ok = list.Get("m-9")
	require.True(t, ok)
}

func TestConfirmWithoutOptimisticEntryFallsBackToMerge(t *testing.T) {
	list := NewList()
	now := time.Now()

	list.Confirm("local-gone", serverMessage("m-2", "kept", now))

	require.Equal(t, 1, list.Len())
	_, ok := list.Get("m-2")
	require.True(t, ok)
}

func TestRollbackRemovesOnlyTheFailedSend(t *testing.T) {
	// Messages from other users keep arriving while a send is in flight.
	// Rolling back the failure must not disturb them.
	list := NewList()
	now := time.Now()

	require.True(t, list.Merge(serverMessage("m-1", "before", now)))
	clientID := list.AddOptimistic(model.Message{Content: "doomed", CreatedAt: now.Add(time.Second)})
	require.True(t, list.Merge(serverMessage("m-2", "during", now.Add(2*time.Second))))
	require.True(t, list.Merge(serverMessage("m-3", "also during", now.Add(3*time.Second))))

	require.True(t, list.Rollback(clientID))

	require.Equal(t, 3, list.Len())
	for _, id := range []string{"m-1", "m-2", "m-3"} {
		_, ok := list.Get(id)
		require.True(t, ok, "expected %s to survive rollback", id)
	}
	_, ok := list.Get(clientID)
	require.False(t, ok)

	require.False(t, list.Rollback(clientID))
}

func TestApplyEditedReplacesMessage(t *testing.T) {
	list := NewList()
	now := time.Now()

	require.True(t, list.Merge(serverMessage("m-1", "original", now)))

	updated := serverMessage("m-1", "rewritten", now)
	updated.Edited = true
	require.True(t, list.Apply(Event{Kind: Edited, Message: updated}))

	stored, ok := list.Get("m-1")
	require.True(t, ok)
	require.Equal(t, "rewritten", stored.Content)
	require.True(t, stored.Edited)
}

func TestApplyDeletedRemovesMessage(t *testing.T) {
	list := NewList()
	now := time.Now()

	require.True(t, list.Merge(serverMessage("m-1", "first", now)))
	require.True(t, list.Merge(serverMessage("m-2", "second", now.Add(time.Second))))

	require.True(t, list.Apply(Event{Kind: Deleted, ID: "m-1"}))
	require.Equal(t, 1, list.Len())

	_, ok := list.Get("m-2")
	require.True(t, ok)
}

func TestApplyUnknownIDIsNoOp(t *testing.T) {
	list := NewList()
	now := time.Now()

	require.True(t, list.Merge(serverMessage("m-1", "kept", now)))

	require.False(t, list.Apply(Event{Kind: Deleted, ID: "never-seen"}))
	require.False(t, list.Apply(Event{Kind: Edited, Message: serverMessage("ghost", "x", now)}))
	require.False(t, list.Apply(Event{Kind: Reported, ID: "ghost"}))

	require.Equal(t, 1, list.Len())
}

func TestApplyReportedFlagsMessage(t *testing.T) {
	list := NewList()

	require.True(t, list.Merge(serverMessage("m-1", "spam", time.Now())))
	require.True(t, list.Apply(Event{Kind: Reported, ID: "m-1"}))

	stored, ok := list.Get("m-1")
	require.True(t, ok)
	require.True(t, stored.Reported)
}

func TestReplaceKeepsPendingOptimisticEntries(t *testing.T) {
	list := NewList()
	now := time.Now()

	require.True(t, list.Merge(serverMessage("m-1", "stale", now)))
	clientID := list.AddOptimistic(model.Message{Content: "in flight", CreatedAt: now.Add(time.Second)})

	list.Replace([]model.Message{
		serverMessage("m-2", "fresh", now),
		serverMessage("m-3", "fresher", now.Add(time.Second)),
	})

	require.Equal(t, 3, list.Len())
	_, ok := list.Get("m-1")
	require.False(t, ok)
	_, ok = list.Get(clientID)
	require.True(t, ok)
}

func TestSnapshotOrdersByCreationTime(t *testing.T) {
	list := NewList()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Arrival order deliberately disagrees with creation order.
	require.True(t, list.Merge(serverMessage("m-3", "third", base.Add(2*time.Minute))))
	require.True(t, list.Merge(serverMessage("m-1", "first", base)))
	require.True(t, list.Merge(serverMessage("m-2", "second", base.Add(time.Minute))))

	snapshot := list.Snapshot()
	require.Len(t, snapshot, 3)
	require.Equal(t, "m-1", snapshot[0].ID)
	require.Equal(t, "m-2", snapshot[1].ID)
	require.Equal(t, "m-3", snapshot[2].ID)
}

func TestSnapshotBreaksTimestampTiesByID(t *testing.T) {
	list := NewList()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, list.Merge(serverMessage("m-b", "b", at)))
	require.True(t, list.Merge(serverMessage("m-a", "a", at)))

	snapshot := list.Snapshot()
	require.Equal(t, "m-a", snapshot[0].ID)
	require.Equal(t, "m-b", snapshot[1].ID)
}
