package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/digital-twin-ai/platform/internal/conversations"
	"github.com/digital-twin-ai/platform/internal/llm"
)

const summaryPrompt = "Summarize the conversation below in 3-5 sentences for the visitor. Cover who the visitor is, what was discussed, and any agreed next steps. Write in plain prose."

// Summarizer produces a model-written summary of a stored
// conversation. It backs the generateSummary tool.
type Summarizer struct {
	conversations conversations.Repository
	client        llm.Client
}

// NewSummarizer creates a summarizer over the conversation store.
func NewSummarizer(repo conversations.Repository, client llm.Client) *Summarizer {
	return &Summarizer{conversations: repo, client: client}
}

// Summarize renders the history as a transcript and asks the model
// for a short summary. focusArea, when non-empty, steers the summary
// toward that aspect of the conversation.
func (s *Summarizer) Summarize(ctx context.Context, conversationID, focusArea string) (string, error) {
	history, err := s.conversations.History(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("chat: load history for summary: %w", err)
	}
	if len(history) == 0 {
		return "", errors.New("chat: nothing to summarize yet")
	}

	var transcript strings.Builder
	for _, m := range history {
		transcript.WriteString(m.Role)
		transcript.WriteString(": ")
		transcript.WriteString(m.Content)
		transcript.WriteString("\n")
	}

	system := summaryPrompt
	if focusArea != "" && focusArea != "full_summary" {
		system += " Focus in particular on: " + strings.ReplaceAll(focusArea, "_", " ") + "."
	}

	resp, err := s.client.Complete(ctx, llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: transcript.String()},
		},
		MaxTokens:   512,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat: summary completion failed: %w", err)
	}
	return resp.Text, nil
}
