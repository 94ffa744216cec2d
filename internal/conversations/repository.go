package conversations

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for conversation storage.
type Repository interface {
	Create(ctx context.Context, sessionID string) (*Conversation, error)
	Get(ctx context.Context, id string) (*Conversation, error)
	SaveMessage(ctx context.Context, conversationID, role, content string, metadata json.RawMessage) (*Message, error)
	History(ctx context.Context, conversationID string) ([]Message, error)
	UpdateTitle(ctx context.Context, conversationID, title string) error
	LinkVisitor(ctx context.Context, conversationID, visitorID string) error
}

// InMemoryRepository keeps conversations in maps, for tests and for
// running without a database.
type InMemoryRepository struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	messages      map[string][]Message
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]Message),
	}
}

// Create starts a new conversation under the default project.
func (r *InMemoryRepository) Create(ctx context.Context, sessionID string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	c := &Conversation{
		ID:        uuid.New().String(),
		ProjectID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(DefaultProjectName)).String(),
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.conversations[c.ID] = c
	copied := *c
	return &copied, nil
}

// Get returns a conversation by id.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	copied := *c
	return &copied, nil
}

// SaveMessage appends one immutable turn.
func (r *InMemoryRepository) SaveMessage(ctx context.Context, conversationID, role, content string, metadata json.RawMessage) (*Message, error) {
	if conversationID == "" {
		return nil, ErrMissingConversation
	}
	if !ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conversationID]; !ok {
		return nil, ErrConversationNotFound
	}

	m := Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	}
	r.messages[conversationID] = append(r.messages[conversationID], m)
	return &m, nil
}

// History returns messages ordered by creation time ascending.
func (r *InMemoryRepository) History(ctx context.Context, conversationID string) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Message, len(r.messages[conversationID]))
	copy(out, r.messages[conversationID])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateTitle sets the conversation title.
func (r *InMemoryRepository) UpdateTitle(ctx context.Context, conversationID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	c.Title = title
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// LinkVisitor records the visitor owning this conversation.
func (r *InMemoryRepository) LinkVisitor(ctx context.Context, conversationID, visitorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	c.VisitorID = visitorID
	c.UpdatedAt = time.Now().UTC()
	return nil
}
