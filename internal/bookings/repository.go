package bookings

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for booking storage. Both upserts
// are atomic on their key: two calls with the same key converge to one
// row carrying the latest call's data.
type Repository interface {
	BookingTimes
	UpsertByConversation(ctx context.Context, req *UpsertRequest, preferredTime *time.Time) (*Booking, error)
	UpsertByVisitor(ctx context.Context, req *CreateRequest, requestedAt time.Time) (*Booking, error)
	GetByConversation(ctx context.Context, conversationID string) (*Booking, error)
}

// InMemoryRepository keeps bookings in maps, for tests and for running
// without a database.
type InMemoryRepository struct {
	mu             sync.RWMutex
	byID           map[string]*Booking
	byConversation map[string]string
	byVisitor      map[string]string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:           make(map[string]*Booking),
		byConversation: make(map[string]string),
		byVisitor:      make(map[string]string),
	}
}

// UpsertByConversation inserts or updates the row for the conversation.
func (r *InMemoryRepository) UpsertByConversation(ctx context.Context, req *UpsertRequest, preferredTime *time.Time) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	status := req.Status
	if status == "" {
		status = StatusPending
	}

	if id, ok := r.byConversation[req.ConversationID]; ok {
		b := r.byID[id]
		b.Email = req.Email
		b.Status = status
		b.PreferredTime = preferredTime
		b.Notes = req.Notes
		b.UpdatedAt = now
		copied := *b
		return &copied, nil
	}

	b := &Booking{
		ID:             uuid.New().String(),
		ConversationID: req.ConversationID,
		Email:          req.Email,
		Status:         status,
		PreferredTime:  preferredTime,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.byID[b.ID] = b
	r.byConversation[req.ConversationID] = b.ID
	copied := *b
	return &copied, nil
}

// UpsertByVisitor inserts or updates the visitor's live booking. The
// row is keyed by visitor only; it never claims the conversation key,
// which belongs to the form path.
func (r *InMemoryRepository) UpsertByVisitor(ctx context.Context, req *CreateRequest, requestedAt time.Time) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if id, ok := r.byVisitor[req.VisitorID]; ok {
		if b := r.byID[id]; b.Status != StatusCancelled {
			b.RequestedDatetime = &requestedAt
			b.MeetingType = req.MeetingType
			b.Notes = req.Notes
			b.UpdatedAt = now
			copied := *b
			return &copied, nil
		}
	}

	b := &Booking{
		ID:                uuid.New().String(),
		VisitorID:         req.VisitorID,
		RequestedDatetime: &requestedAt,
		MeetingType:       req.MeetingType,
		Notes:             req.Notes,
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.byID[b.ID] = b
	r.byVisitor[req.VisitorID] = b.ID
	copied := *b
	return &copied, nil
}

// GetByConversation returns the conversation's booking.
func (r *InMemoryRepository) GetByConversation(ctx context.Context, conversationID string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byConversation[conversationID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}

// RequestedTimesBetween lists requested datetimes of non-cancelled
// bookings inside [from, to).
func (r *InMemoryRepository) RequestedTimesBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []time.Time
	for _, b := range r.byID {
		if b.Status == StatusCancelled || b.RequestedDatetime == nil {
			continue
		}
		t := *b.RequestedDatetime
		if !t.Before(from) && t.Before(to) {
			out = append(out, t)
		}
	}
	return out, nil
}
