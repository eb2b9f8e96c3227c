package msgsync

import (
	"sort"

	"github.com/google/uuid"

	"github.com/techg-platform/techg-client/internal/model"
)

// List keeps the local view of a remote message collection consistent under
// the three update paths that can race: optimistic local inserts, HTTP
// confirmations and broadcast events. Storage order is arrival order;
// display order is derived by Snapshot.
//
// List is not goroutine-safe. The owning controller serializes access.
type List struct {
	items []model.Message
	index map[string]int
}

// NewList creates an empty message list.
func NewList() *List {
	return &List{index: make(map[string]int)}
}

// Len returns the number of stored messages.
func (l *List) Len() int {
	return len(l.items)
}

// Get returns the message with the given id.
func (l *List) Get(id string) (model.Message, bool) {
	pos, ok := l.index[id]
	if !ok {
		return model.Message{}, false
	}
	return l.items[pos], true
}

// Merge inserts a message unless its id is already present. The duplicate
// case makes broadcast delivery idempotent.
func (l *List) Merge(msg model.Message) bool {
	if _, exists := l.index[msg.ID]; exists {
		return false
	}
	l.index[msg.ID] = len(l.items)
	l.items = append(l.items, msg)
	return true
}

// AddOptimistic inserts a locally-synthesized message and returns the
// client-generated id used to confirm or roll it back later.
func (l *List) AddOptimistic(msg model.Message) string {
	clientID := model.LocalIDPrefix + uuid.NewString()
	msg.ID = clientID
	l.index[clientID] = len(l.items)
	l.items = append(l.items, msg)
	return clientID
}

// Confirm replaces the optimistic entry with the server's authoritative
// copy. When the broadcast already delivered the server copy, the optimistic
// entry is simply dropped so exactly one entry remains.
func (l *List) Confirm(clientID string, server model.Message) {
	pos, ok := l.index[clientID]
	if !ok {
		l.Merge(server)
		return
	}

	if _, duplicated := l.index[server.ID]; duplicated {
		l.removeAt(pos, clientID)
		return
	}

	delete(l.index, clientID)
	l.items[pos] = server
	l.index[server.ID] = pos
}

// Rollback removes the optimistic entry identified by clientID. Removal is
// keyed, never positional, so concurrently arrived messages are untouched.
func (l *List) Rollback(clientID string) bool {
	pos, ok := l.index[clientID]
	if !ok {
		return false
	}
	l.removeAt(pos, clientID)
	return true
}

// Apply reduces one event into the list and reports whether state changed.
// Events referencing unknown ids are silent no-ops.
func (l *List) Apply(event Event) bool {
	switch event.Kind {
	case Created:
		return l.Merge(event.Message)
	case Edited, Reacted:
		pos, ok := l.index[event.Message.ID]
		if !ok {
			return false
		}
		l.items[pos] = event.Message
		return true
	case Deleted:
		pos, ok := l.index[event.targetID()]
		if !ok {
			return false
		}
		l.removeAt(pos, event.targetID())
		return true
	case Reported:
		pos, ok := l.index[event.targetID()]
		if !ok {
			return false
		}
		l.items[pos].Reported = true
		return true
	default:
		return false
	}
}

// Replace swaps the whole list for a freshly fetched one, preserving
// unconfirmed optimistic entries so an in-flight send cannot vanish from
// view during a refresh.
func (l *List) Replace(msgs []model.Message) {
	var pending []model.Message
	for _, item := range l.items {
		if item.IsLocal() {
			pending = append(pending, item)
		}
	}

	l.items = l.items[:0]
	l.index = make(map[string]int, len(msgs)+len(pending))

	for _, msg := range msgs {
		l.Merge(msg)
	}
	for _, msg := range pending {
		if _, exists := l.index[msg.ID]; !exists {
			l.index[msg.ID] = len(l.items)
			l.items = append(l.items, msg)
		}
	}
}

// Snapshot returns a copy ordered by creation time for display. Ordering is
// computed here, not maintained as a storage invariant.
func (l *List) Snapshot() []model.Message {
	out := make([]model.Message, len(l.items))
	copy(out, l.items)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}

func (l *List) removeAt(pos int, id string) {
	delete(l.index, id)
	l.items = append(l.items[:pos], l.items[pos+1:]...)
	for i := pos; i < len(l.items); i++ {
		l.index[l.items[i].ID] = i
	}
}
