// Package convo provides the conversation model and persistence.
//
// A Conversation is an append-only sequence of Messages plus a small
// amount of per-conversation context (the user's last known location).
// Once a conversation ends, the only further mutation allowed is
// attaching the summary report.
package convo

import (
	"errors"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Sentinel errors returned by stores and sessions.
var (
	// ErrNotFound means the conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrEnded means the conversation has ended and no longer accepts
	// messages or location updates.
	ErrEnded = errors.New("conversation has ended")

	// ErrNotEnded means a report was requested for a conversation that
	// has not ended yet.
	ErrNotEnded = errors.New("conversation has not ended")
)

// Message is a single utterance in a conversation. Immutable once
// created; ordered by creation time within its conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	IsVoice   bool      `json:"is_voice"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation holds one user's session with the agent.
type Conversation struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Report    string     `json:"report,omitempty"`

	// Last known location, set when the client answers a location
	// request. Nil until then.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Messages []Message `json:"messages,omitempty"`
}

// Ended reports whether the conversation has ended.
func (c *Conversation) Ended() bool {
	return c.EndedAt != nil
}

// Location returns the last known coordinates, or false when none are
// set.
func (c *Conversation) Location() (lat, lon float64, ok bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return 0, 0, false
	}
	return *c.Latitude, *c.Longitude, true
}

// copy returns a deep copy safe to hand out across goroutines.
func (c *Conversation) copy() *Conversation {
	out := *c
	if c.Latitude != nil {
		lat := *c.Latitude
		out.Latitude = &lat
	}
	if c.Longitude != nil {
		lon := *c.Longitude
		out.Longitude = &lon
	}
	if c.EndedAt != nil {
		t := *c.EndedAt
		out.EndedAt = &t
	}
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}
