package visitors

import (
	"context"
	"fmt"

	"github.com/digital-twin-ai/platform/pkg/logging"
)

// ConversationLinker sets the visitor reference on a conversation,
// establishing the relationship used by booking and admin queries.
type ConversationLinker interface {
	LinkVisitor(ctx context.Context, conversationID, visitorID string) error
}

// Registry is the visitor capture entry point shared by the tool path
// and the web form.
type Registry struct {
	repo          Repository
	conversations ConversationLinker
	logger        *logging.Logger
}

// NewRegistry creates a visitor registry.
func NewRegistry(repo Repository, conversations ConversationLinker, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		repo:          repo,
		conversations: conversations,
		logger:        logger,
	}
}

// Capture upserts the visitor keyed by normalized email and, when a
// conversation id is supplied, links the conversation to the visitor.
func (r *Registry) Capture(ctx context.Context, req *CaptureRequest) (*Visitor, error) {
	visitor, err := r.repo.Upsert(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.ConversationID != "" && r.conversations != nil {
		if err := r.conversations.LinkVisitor(ctx, req.ConversationID, visitor.ID); err != nil {
			return nil, fmt.Errorf("visitors: link conversation: %w", err)
		}
	}

	r.logger.Info("visitor captured",
		"visitor_id", visitor.ID,
		"email", visitor.Email,
		"conversation_id", req.ConversationID,
	)
	return visitor, nil
}

// Get returns a visitor by id.
func (r *Registry) Get(ctx context.Context, id string) (*Visitor, error) {
	return r.repo.GetByID(ctx, id)
}
