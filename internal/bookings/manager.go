package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/digital-twin-ai/platform/internal/visitors"
	"github.com/digital-twin-ai/platform/pkg/logging"
)

// VisitorDirectory resolves visitors for the agentic path, which
// requires the visitor to exist before a booking is created.
type VisitorDirectory interface {
	GetByID(ctx context.Context, id string) (*visitors.Visitor, error)
}

// ConfirmationSender emails the visitor after a booking is recorded.
// Sending is best effort; a failure never fails the booking.
type ConfirmationSender interface {
	SendBookingConfirmation(ctx context.Context, to, name string, when time.Time, meetingType string) error
}

// Manager is the booking entry point for both acquisition flows.
type Manager struct {
	repo     Repository
	visitors VisitorDirectory
	sender   ConfirmationSender
	loc      *time.Location
	logger   *logging.Logger
}

// NewManager creates a booking manager. sender may be nil when email is
// not configured.
func NewManager(repo Repository, directory VisitorDirectory, sender ConfirmationSender, loc *time.Location, logger *logging.Logger) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		repo:     repo,
		visitors: directory,
		sender:   sender,
		loc:      loc,
		logger:   logger,
	}
}

// Create handles the agentic path: a confirmed meeting request from the
// conversation. Repeated calls for the same visitor update the live
// booking rather than duplicating it.
func (m *Manager) Create(ctx context.Context, req *CreateRequest) (*Booking, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	visitor, err := m.visitors.GetByID(ctx, req.VisitorID)
	if err != nil {
		return nil, "", err
	}

	requestedAt, err := ParseDatetime(req.RequestedDatetime, m.loc)
	if err != nil {
		return nil, "", err
	}

	booking, err := m.repo.UpsertByVisitor(ctx, req, requestedAt)
	if err != nil {
		return nil, "", fmt.Errorf("bookings: upsert by visitor: %w", err)
	}

	emailed := false
	if m.sender != nil {
		if err := m.sender.SendBookingConfirmation(ctx, visitor.Email, visitor.Name, requestedAt, string(req.MeetingType)); err != nil {
			m.logger.Warn("booking confirmation email failed", "error", err, "booking_id", booking.ID)
		} else {
			emailed = true
		}
	}

	m.logger.Info("booking recorded",
		"booking_id", booking.ID,
		"visitor_id", req.VisitorID,
		"conversation_id", req.ConversationID,
		"requested_datetime", requestedAt,
	)
	message := fmt.Sprintf("Booking confirmed for %s.", req.RequestedDatetime)
	if emailed {
		message += fmt.Sprintf(" Confirmation sent to %s.", visitor.Email)
	}
	return booking, message, nil
}

// Upsert handles the form path, keyed by conversation id.
func (m *Manager) Upsert(ctx context.Context, req *UpsertRequest) (*Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !visitors.ValidEmail(visitors.NormalizeEmail(req.Email)) {
		return nil, ErrInvalidEmail
	}

	var preferred *time.Time
	if req.PreferredTime != "" {
		t, err := ParseDatetime(req.PreferredTime, m.loc)
		if err != nil {
			return nil, err
		}
		preferred = &t
	}

	booking, err := m.repo.UpsertByConversation(ctx, req, preferred)
	if err != nil {
		return nil, fmt.Errorf("bookings: upsert by conversation: %w", err)
	}

	m.logger.Info("booking upserted",
		"booking_id", booking.ID,
		"conversation_id", req.ConversationID,
		"status", booking.Status,
	)
	return booking, nil
}
