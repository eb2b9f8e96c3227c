package model

import (
	"strings"
	"time"
)

// Message represents a chat or direct message as served by the TechG API.
// IDs are strings: server-assigned identifiers for persisted messages and
// "local-" prefixed UUIDs for optimistic entries awaiting confirmation.
type Message struct {
	ID         string            `json:"id"`
	SenderID   string            `json:"sender_id"`
	SenderName string            `json:"sender_name"`
	SenderRole string            `json:"sender_role"`
	ReceiverID string            `json:"receiver_id,omitempty"`
	Content    string            `json:"content"`
	MediaURL   string            `json:"media_url,omitempty"`
	MediaType  string            `json:"media_type,omitempty"`
	ReplyTo    string            `json:"reply_to,omitempty"`
	Edited     bool              `json:"edited"`
	Reported   bool              `json:"reported"`
	Reactions  map[string]string `json:"reactions,omitempty"`
	ReadBy     []string          `json:"read_by,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// LocalIDPrefix marks identifiers generated client-side for optimistic inserts.
const LocalIDPrefix = "local-"

// IsLocal reports whether the message still carries a client-generated id.
func (m Message) IsLocal() bool {
	return strings.HasPrefix(m.ID, LocalIDPrefix)
}

// IsDirect reports whether the message targets a single counterpart rather
// than the group chat.
func (m Message) IsDirect() bool {
	return m.ReceiverID != ""
}

// ReadByUser reports whether the given user appears in the read-by set.
func (m Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the other participant of a direct message from the
// perspective of self.
func (m Message) Counterpart(selfID string) string {
	if m.SenderID == selfID {
		return m.ReceiverID
	}
	return m.SenderID
}

// MessageSendRequest is the payload for posting a new message.
type MessageSendRequest struct {
	Content    string `json:"content" validate:"required,min=1,max=4000"`
	ReceiverID string `json:"receiver_id,omitempty" validate:"omitempty,max=64"`
	ReplyTo    string `json:"reply_to,omitempty" validate:"omitempty,max=64"`
	MediaURL   string `json:"media_url,omitempty" validate:"omitempty,url"`
	MediaType  string `json:"media_type,omitempty" validate:"omitempty,max=128"`
}

// MessageEditRequest updates the content of an existing message.
type MessageEditRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// MessageReactRequest toggles the sender's reaction on a message.
type MessageReactRequest struct {
	Reaction string `json:"reaction" validate:"required,max=16"`
}

// UploadResult is returned by the media upload endpoint.
type UploadResult struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}
