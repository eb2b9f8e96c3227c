package msgsync

import "github.com/techg-platform/techg-client/internal/model"

// Kind tags a realtime mutation applied to the message list.
type Kind int

const (
	// Created carries a full message broadcast to all subscribers.
	Created Kind = iota + 1
	// Edited carries the authoritative copy of a rewritten message.
	Edited
	// Deleted removes a message by id.
	Deleted
	// Reacted carries the message with its updated reaction set.
	Reacted
	// Reported flags a message by id.
	Reported
)

// Event is one entry of the tagged stream the list reduces over. Created,
// Edited and Reacted carry the full resource; Deleted and Reported carry
// only the id.
type Event struct {
	Kind    Kind
	Message model.Message
	ID      string
}

func (e Event) targetID() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Message.ID
}
