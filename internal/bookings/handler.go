package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/digital-twin-ai/platform/pkg/logging"
)

// Handler handles HTTP requests for the form booking path
type Handler struct {
	manager *Manager
	logger  *logging.Logger
}

// NewHandler creates a new bookings handler
func NewHandler(manager *Manager, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		manager: manager,
		logger:  logger,
	}
}

type upsertBookingResponse struct {
	Success bool        `json:"success"`
	Booking bookingBody `json:"booking"`
}

type bookingBody struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Email          string `json:"email"`
	Status         string `json:"status"`
	PreferredTime  string `json:"preferredTime,omitempty"`
}

// Upsert handles POST /bookings requests from the booking form.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	booking, err := h.manager.Upsert(r.Context(), &req)
	if err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to upsert booking", "error", err, "conversation_id", req.ConversationID)
		http.Error(w, "Database error. Please try again.", http.StatusInternalServerError)
		return
	}

	body := bookingBody{
		ID:             booking.ID,
		ConversationID: booking.ConversationID,
		Email:          booking.Email,
		Status:         string(booking.Status),
	}
	if booking.PreferredTime != nil {
		body.PreferredTime = booking.PreferredTime.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(upsertBookingResponse{Success: true, Booking: body})
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidDatetime)
}
