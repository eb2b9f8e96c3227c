package model

import "time"

// Notification is a platform announcement pushed to users. The read state is
// a set of user ids because a single notification fans out to everyone.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	ReadBy    []string  `json:"read_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReadByUser reports whether the given user has marked the notification read.
func (n Notification) ReadByUser(userID string) bool {
	for _, id := range n.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// UnreadCount returns how many of the given notifications the user has not
// read yet.
func UnreadCount(notifications []Notification, userID string) int {
	count := 0
	for _, n := range notifications {
		if !n.ReadByUser(userID) {
			count++
		}
	}
	return count
}

// NotificationCreateRequest is the admin payload for broadcasting a
// notification.
type NotificationCreateRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=255"`
	Message string `json:"message" validate:"required,min=1,max=2000"`
	Type    string `json:"type" validate:"omitempty,oneof=info warning event blog chat"`
}
