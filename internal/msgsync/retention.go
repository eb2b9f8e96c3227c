package msgsync

import (
	"time"

	"github.com/techg-platform/techg-client/internal/model"
)

// IsWithinRetention reports whether a message is young enough to display.
// Every view applies the same predicate instead of duplicating the cutoff
// arithmetic.
func IsWithinRetention(msg model.Message, now time.Time, windowDays int) bool {
	if windowDays <= 0 {
		return true
	}
	cutoff := now.AddDate(0, 0, -windowDays)
	return msg.CreatedAt.After(cutoff)
}

// FilterRetained drops messages older than the retention window.
func FilterRetained(msgs []model.Message, now time.Time, windowDays int) []model.Message {
	out := make([]model.Message, 0, len(msgs))
	for _, msg := range msgs {
		if IsWithinRetention(msg, now, windowDays) {
			out = append(out, msg)
		}
	}
	return out
}
