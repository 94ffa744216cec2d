package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/digital-twin-ai/platform/internal/conversations"
	"github.com/digital-twin-ai/platform/pkg/logging"
)

// Handler handles the chat, voice, and conversation retrieval routes.
type Handler struct {
	service *Service
	repo    conversations.Repository
	logger  *logging.Logger
}

// NewHandler creates a new chat handler
func NewHandler(service *Service, repo conversations.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		repo:    repo,
		logger:  logger,
	}
}

type chatRequest struct {
	ConversationID string `json:"conversationId"`
	SessionID      string `json:"sessionId"`
	Message        string `json:"message"`
}

type chatResponse struct {
	Success        bool   `json:"success"`
	ConversationID string `json:"conversationId"`
	Response       string `json:"response"`
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "No message provided", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Turn(r.Context(), TurnRequest{
		ConversationID: req.ConversationID,
		SessionID:      req.SessionID,
		Message:        req.Message,
	})
	if err != nil {
		h.respondTurnError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Success:        true,
		ConversationID: resp.ConversationID,
		Response:       resp.Reply,
	})
}

type voiceRequest struct {
	Transcript     string `json:"transcript"`
	ConversationID string `json:"conversationId"`
	SessionID      string `json:"sessionId"`
}

type voiceResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId"`
	Source         string `json:"source"`
}

// Voice handles POST /voice: same turn logic, tuned for speech.
func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if req.Transcript == "" {
		http.Error(w, "No transcript provided", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Turn(r.Context(), TurnRequest{
		ConversationID: req.ConversationID,
		SessionID:      req.SessionID,
		Message:        req.Transcript,
		Voice:          true,
	})
	if err != nil {
		h.respondTurnError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, voiceResponse{
		Response:       resp.Reply,
		ConversationID: resp.ConversationID,
		Source:         "voice",
	})
}

type conversationResponse struct {
	Success      bool                    `json:"success"`
	Conversation conversationBody        `json:"conversation"`
	Messages     []conversations.Message `json:"messages"`
}

type conversationBody struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
	MessageCount int    `json:"messageCount"`
}

// GetConversation handles GET /conversations/{id}.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Conversation ID required", http.StatusBadRequest)
		return
	}

	conv, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, conversations.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load conversation", "error", err, "conversation_id", id)
		http.Error(w, "Failed to retrieve conversation", http.StatusInternalServerError)
		return
	}

	messages, err := h.repo.History(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load messages", "error", err, "conversation_id", id)
		http.Error(w, "Failed to retrieve conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, conversationResponse{
		Success: true,
		Conversation: conversationBody{
			ID:           conv.ID,
			Title:        conv.Title,
			CreatedAt:    conv.CreatedAt.Format(time.RFC3339),
			UpdatedAt:    conv.UpdatedAt.Format(time.RFC3339),
			MessageCount: len(messages),
		},
		Messages: messages,
	})
}

func (h *Handler) respondTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		http.Error(w, "No message provided", http.StatusBadRequest)
	case errors.Is(err, conversations.ErrConversationNotFound):
		http.Error(w, "Conversation not found", http.StatusNotFound)
	default:
		h.logger.Error("chat turn failed", "error", err)
		http.Error(w, "Failed to generate response", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
