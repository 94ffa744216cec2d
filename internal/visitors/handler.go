package visitors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/digital-twin-ai/platform/pkg/logging"
)

// Handler handles HTTP requests for visitor capture
type Handler struct {
	registry *Registry
	logger   *logging.Logger
}

// NewHandler creates a new visitors handler
func NewHandler(registry *Registry, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		registry: registry,
		logger:   logger,
	}
}

type createVisitorRequest struct {
	ConversationID string `json:"conversationId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	LinkedIn       string `json:"linkedin"`
}

type createVisitorResponse struct {
	Success bool        `json:"success"`
	Visitor visitorBody `json:"visitor"`
}

type visitorBody struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// Create handles POST /visitors requests from the capture form.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createVisitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ConversationID == "" || req.Name == "" || req.Email == "" {
		http.Error(w, "conversationId, name, and email are required", http.StatusBadRequest)
		return
	}

	visitor, err := h.registry.Capture(r.Context(), &CaptureRequest{
		ConversationID: req.ConversationID,
		Name:           req.Name,
		Email:          req.Email,
		LinkedIn:       req.LinkedIn,
	})
	if err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to capture visitor", "error", err)
		http.Error(w, "Database error. Please try again.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createVisitorResponse{
		Success: true,
		Visitor: visitorBody{
			ID:       visitor.ID,
			Name:     visitor.Name,
			Email:    visitor.Email,
			LinkedIn: visitor.LinkedIn,
		},
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingName) ||
		errors.Is(err, ErrMissingEmail) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidRole)
}
