package controller

import "github.com/techg-platform/techg-client/internal/realtime"

// Realtime is the slice of the channel the controllers depend on. The
// concrete *realtime.Channel satisfies it; tests substitute a fake.
type Realtime interface {
	Subscribe(event string, handler realtime.Handler)
	Emit(event string, payload interface{})
	OnStateChange(fn func(connected bool))
	Connected() bool
}
