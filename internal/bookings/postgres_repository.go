package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores bookings in the relational database. The
// upserts lean on the unique indexes ux_bookings_conversation_id and
// ux_bookings_visitor_active, so concurrent requests for the same new
// key cannot produce duplicate rows.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const bookingColumns = `id, COALESCE(visitor_id::text, ''), COALESCE(conversation_id::text, ''),
	COALESCE(email, ''), requested_datetime, preferred_time,
	COALESCE(meeting_type, ''), COALESCE(notes, ''), status, created_at, updated_at`

// UpsertByConversation inserts or updates the conversation's booking in
// one statement.
func (r *PostgresRepository) UpsertByConversation(ctx context.Context, req *UpsertRequest, preferredTime *time.Time) (*Booking, error) {
	status := req.Status
	if status == "" {
		status = StatusPending
	}

	query := `
		INSERT INTO bookings (id, conversation_id, email, status, preferred_time, notes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (conversation_id) WHERE conversation_id IS NOT NULL DO UPDATE SET
		    email = EXCLUDED.email,
		    status = EXCLUDED.status,
		    preferred_time = EXCLUDED.preferred_time,
		    notes = EXCLUDED.notes,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING ` + bookingColumns
	row := r.db.QueryRow(ctx, query,
		uuid.New(), req.ConversationID, req.Email, string(status), preferredTime, req.Notes)
	return scanBooking(row)
}

// UpsertByVisitor inserts or updates the visitor's live booking in one
// statement. Cancelled rows are outside the arbiter index, so a new
// request after a cancellation starts a fresh booking. The row carries
// no conversation_id: the agentic key space is visitor-only, and a
// conversation_id here would collide with ux_bookings_conversation_id
// when the same conversation already holds a form booking.
func (r *PostgresRepository) UpsertByVisitor(ctx context.Context, req *CreateRequest, requestedAt time.Time) (*Booking, error) {
	query := `
		INSERT INTO bookings (id, visitor_id, requested_datetime, meeting_type, notes, status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), 'pending')
		ON CONFLICT (visitor_id) WHERE visitor_id IS NOT NULL AND status != 'cancelled' DO UPDATE SET
		    requested_datetime = EXCLUDED.requested_datetime,
		    meeting_type = EXCLUDED.meeting_type,
		    notes = EXCLUDED.notes,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING ` + bookingColumns
	row := r.db.QueryRow(ctx, query,
		uuid.New(), req.VisitorID, requestedAt, string(req.MeetingType), req.Notes)
	return scanBooking(row)
}

// GetByConversation returns the conversation's booking.
func (r *PostgresRepository) GetByConversation(ctx context.Context, conversationID string) (*Booking, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE conversation_id = $1`, conversationID)
	b, err := scanBooking(row)
	if err == pgx.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// RequestedTimesBetween lists requested datetimes of non-cancelled
// bookings inside [from, to).
func (r *PostgresRepository) RequestedTimesBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `
		SELECT requested_datetime FROM bookings
		WHERE requested_datetime >= $1 AND requested_datetime < $2
		  AND status != 'cancelled'`, from, to)
	if err != nil {
		return nil, fmt.Errorf("bookings: select times failed: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.VisitorID, &b.ConversationID, &b.Email,
		&b.RequestedDatetime, &b.PreferredTime, &b.MeetingType, &b.Notes,
		&b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: scan failed: %w", err)
	}
	return &b, nil
}
