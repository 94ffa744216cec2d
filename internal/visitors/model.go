package visitors

import (
	"regexp"
	"strings"
	"time"
)

// Role classifies why a visitor is reaching out.
type Role string

const (
	RoleRecruiter       Role = "recruiter"
	RoleHiringManager   Role = "hiring_manager"
	RoleCollaborator    Role = "collaborator"
	RoleInterestedParty Role = "interested_party"
	RoleOther           Role = "other"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleRecruiter, RoleHiringManager, RoleCollaborator, RoleInterestedParty, RoleOther:
		return true
	}
	return false
}

// Visitor represents a person who shared contact details through the chat.
type Visitor struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role,omitempty"`
	Context   string    `json:"context,omitempty"`
	LinkedIn  string    `json:"linkedin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CaptureRequest carries the fields accepted by both capture paths. The
// tool path sets Role/Context, the web form sets LinkedIn.
type CaptureRequest struct {
	ConversationID string `json:"conversationId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	Context        string `json:"context"`
	LinkedIn       string `json:"linkedin"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail case-folds and trims an email address. The normalized
// form is the logical key of a visitor.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail performs the syntactic check used by every entry point.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Validate rejects a capture request before any store write.
func (r *CaptureRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if !ValidEmail(NormalizeEmail(r.Email)) {
		return ErrInvalidEmail
	}
	if r.Role != "" && !r.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}
