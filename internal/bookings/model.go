// Package bookings models meeting requests: the availability checker,
// the agentic booking path keyed by visitor, and the form path keyed by
// conversation.
package bookings

import (
	"strings"
	"time"
)

// Status tracks the booking lifecycle. Transitions are externally
// driven; nothing here auto-confirms.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusRequested Status = "requested"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRequested:
		return true
	}
	return false
}

// MeetingType classifies what the visitor wants to talk about.
type MeetingType string

const (
	MeetingQuickCall     MeetingType = "quick_call"
	MeetingTechnical     MeetingType = "technical_discussion"
	MeetingCollaboration MeetingType = "collaboration_exploration"
	MeetingGeneral       MeetingType = "general_inquiry"
)

// Valid reports whether the meeting type is one of the known values.
func (m MeetingType) Valid() bool {
	switch m {
	case MeetingQuickCall, MeetingTechnical, MeetingCollaboration, MeetingGeneral:
		return true
	}
	return false
}

// Booking is a requested meeting. Depending on the entry path it is
// keyed by visitor (agentic) or conversation (form); the two key spaces
// are not reconciled.
type Booking struct {
	ID                string      `json:"id"`
	VisitorID         string      `json:"visitor_id,omitempty"`
	ConversationID    string      `json:"conversation_id,omitempty"`
	Email             string      `json:"email,omitempty"`
	RequestedDatetime *time.Time  `json:"requested_datetime,omitempty"`
	PreferredTime     *time.Time  `json:"preferred_time,omitempty"`
	MeetingType       MeetingType `json:"meeting_type,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	Status            Status      `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// CreateRequest is the agentic entry point's input, produced by the
// createBooking tool after the visitor was captured.
type CreateRequest struct {
	VisitorID         string      `json:"visitorId"`
	ConversationID    string      `json:"conversationId"`
	RequestedDatetime string      `json:"requestedDatetime"`
	MeetingType       MeetingType `json:"meetingType"`
	Notes             string      `json:"notes"`
}

// Validate rejects the request before any store access.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.VisitorID) == "" || strings.TrimSpace(r.RequestedDatetime) == "" || r.MeetingType == "" {
		return ErrMissingFields
	}
	if !r.MeetingType.Valid() {
		return ErrInvalidMeetingType
	}
	return nil
}

// UpsertRequest is the form entry point's input (POST /bookings).
type UpsertRequest struct {
	ConversationID string `json:"conversationId"`
	Email          string `json:"email"`
	Status         Status `json:"status"`
	PreferredTime  string `json:"preferredTime"`
	Notes          string `json:"notes"`
}

// Validate rejects the request before any store access.
func (r *UpsertRequest) Validate() error {
	if strings.TrimSpace(r.ConversationID) == "" || strings.TrimSpace(r.Email) == "" {
		return ErrMissingFields
	}
	if r.Status != "" && !r.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// ParseDatetime accepts RFC3339 or a naive ISO timestamp, resolving the
// naive form in loc.
func ParseDatetime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDatetime
	}
	return t, nil
}
