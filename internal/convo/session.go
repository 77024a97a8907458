package convo

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is a live handle on one conversation. It caches the message
// history in memory and writes every mutation through to the backing
// store, so the orchestrator never re-reads the store mid-turn.
//
// A Session is safe for concurrent use, though the gateway serializes
// all access per conversation anyway.
type Session struct {
	store Store

	mu   sync.Mutex
	conv *Conversation
}

// Open loads the conversation and returns a session over it.
func Open(store Store, conversationID string) (*Session, error) {
	conv, err := store.Conversation(conversationID)
	if err != nil {
		return nil, err
	}
	return &Session{store: store, conv: conv}, nil
}

// ID returns the conversation ID.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.ID
}

// Ended reports whether the conversation has ended. The session does
// not observe ends performed through other handles; Append surfaces
// those as ErrEnded from the store.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Ended()
}

// Append records a new message and returns it with its assigned ID and
// timestamp. Returns ErrEnded once the conversation has ended.
func (s *Session) Append(role, content string, isVoice bool) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv.Ended() {
		return Message{}, ErrEnded
	}
	msg := Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      role,
		Content:   content,
		IsVoice:   isVoice,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendMessage(s.conv.ID, msg); err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	s.conv.Messages = append(s.conv.Messages, msg)
	return msg, nil
}

// History returns a copy of the message sequence in order.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.conv.Messages))
	copy(out, s.conv.Messages)
	return out
}

// SetLocation records the user's coordinates for this conversation.
func (s *Session) SetLocation(lat, lon float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv.Ended() {
		return ErrEnded
	}
	if err := s.store.SetLocation(s.conv.ID, lat, lon); err != nil {
		return err
	}
	s.conv.Latitude = &lat
	s.conv.Longitude = &lon
	return nil
}

// Location returns the last known coordinates, or false when the user
// never shared them. It reads through to the store: clients supply
// coordinates over REST while the channel is open, and the next turn
// must see them without a reconnect.
func (s *Session) Location() (lat, lon float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, err := s.store.Conversation(s.conv.ID); err == nil {
		s.conv.Latitude = conv.Latitude
		s.conv.Longitude = conv.Longitude
	}
	return s.conv.Location()
}
