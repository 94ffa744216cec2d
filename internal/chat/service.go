// Package chat orchestrates one conversation turn: persist the user
// message, run the model with tools until it settles on text, and
// persist the reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/digital-twin-ai/platform/internal/conversations"
	"github.com/digital-twin-ai/platform/internal/llm"
	"github.com/digital-twin-ai/platform/internal/observability/metrics"
	"github.com/digital-twin-ai/platform/internal/sessions"
	"github.com/digital-twin-ai/platform/internal/tools"
	"github.com/digital-twin-ai/platform/pkg/logging"
)

// maxToolRounds caps tool-call loops per turn so a confused model
// cannot spin forever.
const maxToolRounds = 5

const titleLimit = 60

var ErrEmptyMessage = errors.New("chat: message required")

// Options tunes the model per deployment.
type Options struct {
	MaxTokens      int32
	VoiceMaxTokens int32
	Temperature    float32
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1024
	}
	if o.VoiceMaxTokens <= 0 {
		o.VoiceMaxTokens = 300
	}
	if o.Temperature <= 0 {
		o.Temperature = 0.7
	}
	return o
}

// Service runs chat and voice turns.
type Service struct {
	conversations conversations.Repository
	sessions      sessions.Store
	client        llm.Client
	dispatcher    *tools.Dispatcher
	metrics       *metrics.ChatMetrics
	logger        *logging.Logger
	opts          Options
}

// NewService wires the turn orchestrator. sessions may be nil when no
// session store is configured.
func NewService(repo conversations.Repository, sessionStore sessions.Store, client llm.Client, dispatcher *tools.Dispatcher, m *metrics.ChatMetrics, logger *logging.Logger, opts Options) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		conversations: repo,
		sessions:      sessionStore,
		client:        client,
		dispatcher:    dispatcher,
		metrics:       m,
		logger:        logger,
		opts:          opts.withDefaults(),
	}
}

// TurnRequest is one inbound message, from chat or voice.
type TurnRequest struct {
	ConversationID string
	SessionID      string
	Message        string
	Voice          bool
}

// TurnResponse carries the assistant's reply.
type TurnResponse struct {
	ConversationID string
	Reply          string
}

// Turn runs one full conversation turn.
func (s *Service) Turn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	start := time.Now()
	mode := "chat"
	if req.Voice {
		mode = "voice"
	}

	conv, created, err := s.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err := s.conversations.SaveMessage(ctx, conv.ID, conversations.RoleUser, req.Message, nil); err != nil {
		return nil, fmt.Errorf("chat: save user message: %w", err)
	}
	if created {
		if err := s.conversations.UpdateTitle(ctx, conv.ID, titleFrom(req.Message)); err != nil {
			s.logger.Warn("failed to set conversation title", "error", err, "conversation_id", conv.ID)
		}
	}

	reply, err := s.generate(ctx, conv.ID, req.Voice)
	if err != nil {
		return nil, err
	}

	if _, err := s.conversations.SaveMessage(ctx, conv.ID, conversations.RoleAssistant, reply, nil); err != nil {
		return nil, fmt.Errorf("chat: save assistant message: %w", err)
	}

	s.metrics.ObserveTurnLatency(mode, time.Since(start).Seconds())
	return &TurnResponse{ConversationID: conv.ID, Reply: reply}, nil
}

// resolveConversation finds the turn's conversation: explicit id first,
// then the session mapping, otherwise a fresh conversation.
func (s *Service) resolveConversation(ctx context.Context, req TurnRequest) (*conversations.Conversation, bool, error) {
	if req.ConversationID != "" {
		conv, err := s.conversations.Get(ctx, req.ConversationID)
		if err != nil {
			return nil, false, err
		}
		return conv, false, nil
	}

	if req.SessionID != "" && s.sessions != nil {
		if id, ok, err := s.sessions.Resolve(ctx, req.SessionID); err != nil {
			s.logger.Warn("session resolve failed", "error", err, "session_id", req.SessionID)
		} else if ok {
			conv, err := s.conversations.Get(ctx, id)
			if err == nil {
				return conv, false, nil
			}
			// Stale mapping, fall through to a new conversation.
			s.logger.Warn("session points to missing conversation", "conversation_id", id)
		}
	}

	conv, err := s.conversations.Create(ctx, req.SessionID)
	if err != nil {
		return nil, false, fmt.Errorf("chat: create conversation: %w", err)
	}
	if req.SessionID != "" && s.sessions != nil {
		if err := s.sessions.Link(ctx, req.SessionID, conv.ID); err != nil {
			s.logger.Warn("session link failed", "error", err, "session_id", req.SessionID)
		}
	}
	return conv, true, nil
}

// generate runs the model over the stored history, resolving tool
// calls until the model answers in text.
func (s *Service) generate(ctx context.Context, conversationID string, voice bool) (string, error) {
	history, err := s.conversations.History(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("chat: load history: %w", err)
	}

	messages := make([]llm.Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	system := SystemPrompt
	maxTokens := s.opts.MaxTokens
	if voice {
		system += VoiceModeSuffix
		maxTokens = s.opts.VoiceMaxTokens
	}

	for round := 0; round <= maxToolRounds; round++ {
		resp, err := s.client.Complete(ctx, llm.Request{
			System:      system,
			Messages:    messages,
			Tools:       tools.Definitions(),
			MaxTokens:   maxTokens,
			Temperature: s.opts.Temperature,
		})
		if err != nil {
			return "", fmt.Errorf("chat: completion failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result := s.dispatcher.Dispatch(ctx, conversationID, call)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    result.JSON(),
			})
		}
	}
	return "", errors.New("chat: tool round limit exceeded")
}

func titleFrom(message string) string {
	title := strings.TrimSpace(message)
	if runes := []rune(title); len(runes) > titleLimit {
		title = string(runes[:titleLimit])
	}
	return title
}
