package realtime

import "encoding/json"

// Event names pushed over the channel. Payloads mirror the REST resource
// representations; contracts/ pins the shapes.
const (
	EventNewMessage      = "new-message"
	EventMessageEdited   = "message-edited"
	EventMessageDeleted  = "message-deleted"
	EventMessageReaction = "message-reaction"
	EventMessageReported = "message-reported"
	EventNewNotification = "new-notification"
	EventNewBlog         = "new-blog"
	EventBlogUpdated     = "blog-updated"
	EventBlogDeleted     = "blog-deleted"
	EventAdminOnline     = "admin-online"
	EventUserTyping      = "user-typing"
	EventJoinChat        = "join-chat"
)

// Frame is the wire shape of every message crossing the channel, in both
// directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler consumes the payload of a subscribed event. Handlers run one at a
// time on the dispatch goroutine, in receipt order.
type Handler func(data json.RawMessage)
