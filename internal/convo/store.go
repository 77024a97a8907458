package convo

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists conversations. Implementations must enforce the
// end-of-life rules themselves: appends and location updates fail with
// ErrEnded after EndConversation, EndConversation fails with ErrEnded
// when called twice, and SetReport fails with ErrNotEnded before the
// conversation has ended.
type Store interface {
	// CreateConversation starts a new conversation for the given user
	// and returns it with a fresh ID.
	CreateConversation(userID string) (*Conversation, error)

	// Conversation returns a conversation with its full message
	// history, or ErrNotFound.
	Conversation(id string) (*Conversation, error)

	// AppendMessage adds a message to an active conversation.
	AppendMessage(conversationID string, msg Message) error

	// SetLocation records the user's coordinates.
	SetLocation(conversationID string, lat, lon float64) error

	// EndConversation marks the conversation ended and returns the end
	// time.
	EndConversation(id string) (time.Time, error)

	// SetReport attaches the summary report to an ended conversation.
	SetReport(id, report string) error

	// Close releases any underlying resources.
	Close() error
}

// MemStore is an in-memory Store for tests and single-process use.
type MemStore struct {
	mu    sync.RWMutex
	convs map[string]*Conversation
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{convs: make(map[string]*Conversation)}
}

// CreateConversation starts a new conversation.
func (s *MemStore) CreateConversation(userID string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := &Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}
	s.convs[conv.ID] = conv
	return conv.copy(), nil
}

// Conversation returns a copy of the conversation.
func (s *MemStore) Conversation(id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return conv.copy(), nil
}

// AppendMessage adds a message to an active conversation.
func (s *MemStore) AppendMessage(conversationID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[conversationID]
	if !ok {
		return ErrNotFound
	}
	if conv.Ended() {
		return ErrEnded
	}
	conv.Messages = append(conv.Messages, msg)
	return nil
}

// SetLocation records the user's coordinates.
func (s *MemStore) SetLocation(conversationID string, lat, lon float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[conversationID]
	if !ok {
		return ErrNotFound
	}
	if conv.Ended() {
		return ErrEnded
	}
	conv.Latitude = &lat
	conv.Longitude = &lon
	return nil
}

// EndConversation marks the conversation ended.
func (s *MemStore) EndConversation(id string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	if conv.Ended() {
		return time.Time{}, ErrEnded
	}
	now := time.Now().UTC()
	conv.EndedAt = &now
	return now, nil
}

// SetReport attaches the summary report to an ended conversation.
func (s *MemStore) SetReport(id, report string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return ErrNotFound
	}
	if !conv.Ended() {
		return ErrNotEnded
	}
	conv.Report = report
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error {
	return nil
}
