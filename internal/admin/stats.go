// Package admin serves the dashboard's analytics endpoint.
package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/digital-twin-ai/platform/pkg/logging"
)

const recentLimit = 10

// Stats aggregates the dashboard counters.
type Stats struct {
	TotalVisitors         int `json:"totalVisitors"`
	TotalConversations    int `json:"totalConversations"`
	TotalBookings         int `json:"totalBookings"`
	PendingBookings       int `json:"pendingBookings"`
	TotalMessages         int `json:"totalMessages"`
	ConversationsThisWeek int `json:"conversationsThisWeek"`
}

// RecentVisitor is one row of the dashboard's visitor list.
type RecentVisitor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// RecentBooking is one row of the dashboard's booking list.
type RecentBooking struct {
	ID                string `json:"id"`
	VisitorName       string `json:"visitorName"`
	RequestedDatetime string `json:"requestedDatetime"`
	MeetingType       string `json:"meetingType"`
	Status            string `json:"status"`
}

type statsResponse struct {
	Error          string          `json:"error,omitempty"`
	Stats          Stats           `json:"stats"`
	RecentVisitors []RecentVisitor `json:"recentVisitors"`
	RecentBookings []RecentBooking `json:"recentBookings"`
}

// StatsHandler serves GET /admin/stats.
type StatsHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewStatsHandler creates a stats handler over the database.
func NewStatsHandler(db *sql.DB, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{db: db, logger: logger}
}

// ServeHTTP collects counts and recent activity. Any query failure
// degrades to zeroed stats with HTTP 200 so the dashboard still
// renders.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := h.collect(r.Context())
	if err != nil {
		h.logger.Error("admin stats query failed", "error", err)
		resp = &statsResponse{
			Error:          "Failed to fetch admin data",
			RecentVisitors: []RecentVisitor{},
			RecentBookings: []RecentBooking{},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (h *StatsHandler) collect(ctx context.Context) (*statsResponse, error) {
	resp := &statsResponse{
		RecentVisitors: []RecentVisitor{},
		RecentBookings: []RecentBooking{},
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM visitors`, &resp.Stats.TotalVisitors},
		{`SELECT COUNT(*) FROM conversations`, &resp.Stats.TotalConversations},
		{`SELECT COUNT(*) FROM bookings`, &resp.Stats.TotalBookings},
		{`SELECT COUNT(*) FROM bookings WHERE status = 'pending'`, &resp.Stats.PendingBookings},
		{`SELECT COUNT(*) FROM messages`, &resp.Stats.TotalMessages},
	}
	for _, c := range counts {
		if err := h.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("admin: count query failed: %w", err)
		}
	}

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE created_at > $1`, weekAgo).
		Scan(&resp.Stats.ConversationsThisWeek)
	if err != nil {
		return nil, fmt.Errorf("admin: week count failed: %w", err)
	}

	if err := h.recentVisitors(ctx, resp); err != nil {
		return nil, err
	}
	if err := h.recentBookings(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (h *StatsHandler) recentVisitors(ctx context.Context, resp *statsResponse) error {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, name, email, role, created_at
		FROM visitors
		ORDER BY created_at DESC
		LIMIT `+fmt.Sprint(recentLimit))
	if err != nil {
		return fmt.Errorf("admin: recent visitors failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v RecentVisitor
		var role sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &role, &createdAt); err != nil {
			return fmt.Errorf("admin: scan visitor failed: %w", err)
		}
		v.Role = role.String
		v.CreatedAt = createdAt.Format("Jan 2, 2006")
		resp.RecentVisitors = append(resp.RecentVisitors, v)
	}
	return rows.Err()
}

func (h *StatsHandler) recentBookings(ctx context.Context, resp *statsResponse) error {
	rows, err := h.db.QueryContext(ctx, `
		SELECT b.id, v.name, b.requested_datetime, b.meeting_type, b.status
		FROM bookings b
		LEFT JOIN visitors v ON b.visitor_id = v.id
		ORDER BY b.created_at DESC
		LIMIT `+fmt.Sprint(recentLimit))
	if err != nil {
		return fmt.Errorf("admin: recent bookings failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b RecentBooking
		var name, meetingType sql.NullString
		var requestedAt sql.NullTime
		if err := rows.Scan(&b.ID, &name, &requestedAt, &meetingType, &b.Status); err != nil {
			return fmt.Errorf("admin: scan booking failed: %w", err)
		}
		b.VisitorName = name.String
		if b.VisitorName == "" {
			b.VisitorName = "Unknown"
		}
		if requestedAt.Valid {
			b.RequestedDatetime = requestedAt.Time.Format("Jan 2, 2006 15:04")
		} else {
			b.RequestedDatetime = "Not specified"
		}
		b.MeetingType = meetingType.String
		resp.RecentBookings = append(resp.RecentBookings, b)
	}
	return rows.Err()
}
