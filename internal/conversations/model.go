// Package conversations persists chat sessions and their messages.
// A conversation may exist before any visitor is identified; the
// visitor link is set later by the capture flow.
package conversations

import (
	"encoding/json"
	"time"
)

// DefaultProjectName identifies the single project all conversations
// attach to.
const DefaultProjectName = "Digital Twin"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is one chat session.
type Conversation struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	VisitorID string    `json:"visitor_id,omitempty"`
	SessionID string    `json:"visitor_session_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one turn of dialogue. Messages are append-only.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ValidRole restricts message roles to the two-value enum.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
