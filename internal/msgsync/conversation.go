package msgsync

import (
	"sort"

	"github.com/techg-platform/techg-client/internal/model"
)

// Conversation is the derived grouping of direct messages by counterpart.
// It is recomputed from the flat message list on demand and never stored.
type Conversation struct {
	PartnerID   string
	PartnerName string
	Messages    []model.Message
	LastAt      int64
	Unread      int
}

// Conversations groups direct messages by the counterpart of self, newest
// conversation first. Unread counts messages sent by the partner that self
// has not marked read.
func Conversations(selfID string, msgs []model.Message) []Conversation {
	grouped := make(map[string]*Conversation)

	for _, msg := range msgs {
		if !msg.IsDirect() {
			continue
		}

		partner := msg.Counterpart(selfID)
		if partner == "" || partner == selfID {
			continue
		}

		conv, ok := grouped[partner]
		if !ok {
			conv = &Conversation{PartnerID: partner}
			grouped[partner] = conv
		}

		conv.Messages = append(conv.Messages, msg)
		if at := msg.CreatedAt.UnixMilli(); at > conv.LastAt {
			conv.LastAt = at
		}
		if msg.SenderID == partner {
			conv.PartnerName = msg.SenderName
			if !msg.ReadByUser(selfID) {
				conv.Unread++
			}
		}
	}

	out := make([]Conversation, 0, len(grouped))
	for _, conv := range grouped {
		sort.SliceStable(conv.Messages, func(i, j int) bool {
			return conv.Messages[i].CreatedAt.Before(conv.Messages[j].CreatedAt)
		})
		out = append(out, *conv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastAt == out[j].LastAt {
			return out[i].PartnerID < out[j].PartnerID
		}
		return out[i].LastAt > out[j].LastAt
	})

	return out
}
