package model

import "encoding/json"

// Envelope is the common response wrapper the TechG API places around every
// payload.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}
