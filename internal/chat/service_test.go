package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-twin-ai/platform/internal/bookings"
	"github.com/digital-twin-ai/platform/internal/conversations"
	"github.com/digital-twin-ai/platform/internal/llm"
	"github.com/digital-twin-ai/platform/internal/sessions"
	"github.com/digital-twin-ai/platform/internal/tools"
	"github.com/digital-twin-ai/platform/internal/visitors"
)

// scriptedClient replays canned responses and records each request.
type scriptedClient struct {
	responses []llm.Response
	err       error
	requests  []llm.Request
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return llm.Response{}, c.err
	}
	i := len(c.requests) - 1
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	return c.responses[i], nil
}

func newTestService(t *testing.T, client llm.Client) (*Service, conversations.Repository) {
	t.Helper()
	repo := conversations.NewInMemoryRepository()
	visitorRepo := visitors.NewInMemoryRepository()
	registry := visitors.NewRegistry(visitorRepo, repo, nil)
	bookingRepo := bookings.NewInMemoryRepository()
	manager := bookings.NewManager(bookingRepo, visitorRepo, nil, nil, nil)
	checker := bookings.NewAvailabilityChecker(bookingRepo, nil, nil)
	dispatcher := tools.NewDispatcher(registry, checker, manager, NewSummarizer(repo, client), nil, nil, nil)

	svc := NewService(repo, sessions.NewMemoryStore(0), client, dispatcher, nil, nil, Options{})
	return svc, repo
}

func TestTurnPlainReply(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{{Text: "Hi, I'm Pranjal's digital twin."}}}
	svc, repo := newTestService(t, client)

	resp, err := svc.Turn(context.Background(), TurnRequest{Message: "hello"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "Hi, I'm Pranjal's digital twin.", resp.Reply)

	history, err := repo.History(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, conversations.RoleUser, history[0].Role)
	assert.Equal(t, conversations.RoleAssistant, history[1].Role)

	conv, err := repo.Get(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "hello", conv.Title)
}

func TestTurnRunsToolLoop(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID:        "call_1",
			Name:      tools.ToolCheckAvailability,
			Arguments: `{"date":"2025-06-10","timeSlot":"morning"}`,
		}}},
		{Text: "Morning works: 09:00, 10:00 or 11:00."},
	}}
	svc, _ := newTestService(t, client)

	resp, err := svc.Turn(context.Background(), TurnRequest{Message: "can we meet Tuesday morning?"})
	require.NoError(t, err)
	assert.Equal(t, "Morning works: 09:00, 10:00 or 11:00.", resp.Reply)

	require.Len(t, client.requests, 2)
	second := client.requests[1]
	// The tool result must reach the model as a tool-role message.
	last := second.Messages[len(second.Messages)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Contains(t, last.Content, `"success":true`)
}

func TestTurnToolFailureStaysConversational(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID:        "call_1",
			Name:      tools.ToolCheckAvailability,
			Arguments: `{"date":"someday","timeSlot":"morning"}`,
		}}},
		{Text: "That date didn't parse - could you give it as YYYY-MM-DD?"},
	}}
	svc, _ := newTestService(t, client)

	resp, err := svc.Turn(context.Background(), TurnRequest{Message: "book me for someday"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "YYYY-MM-DD")

	last := client.requests[1].Messages[len(client.requests[1].Messages)-1]
	assert.Contains(t, last.Content, `"success":false`)
}

func TestTurnToolRoundLimit(t *testing.T) {
	// The model keeps calling tools and never settles on text.
	client := &scriptedClient{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "call_x", Name: tools.ToolGenerateSummary, Arguments: "{}"}}},
	}}
	svc, _ := newTestService(t, client)

	_, err := svc.Turn(context.Background(), TurnRequest{Message: "summarize forever"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool round limit")
}

func TestTurnVoiceMode(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{{Text: "Sure, happy to chat."}}}
	svc, _ := newTestService(t, client)

	_, err := svc.Turn(context.Background(), TurnRequest{Message: "hello", Voice: true})
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.True(t, strings.Contains(req.System, "VOICE MODE"))
	assert.Equal(t, int32(300), req.MaxTokens)
}

func TestTurnSessionContinuity(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{{Text: "ok"}}}
	svc, _ := newTestService(t, client)

	first, err := svc.Turn(context.Background(), TurnRequest{SessionID: "sess-1", Message: "hello"})
	require.NoError(t, err)
	second, err := svc.Turn(context.Background(), TurnRequest{SessionID: "sess-1", Message: "still me"})
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)
}

func TestTurnUnknownConversation(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{{Text: "ok"}}}
	svc, _ := newTestService(t, client)

	_, err := svc.Turn(context.Background(), TurnRequest{ConversationID: "missing", Message: "hi"})
	assert.ErrorIs(t, err, conversations.ErrConversationNotFound)
}

func TestTurnEmptyMessage(t *testing.T) {
	svc, _ := newTestService(t, &scriptedClient{responses: []llm.Response{{Text: "ok"}}})

	_, err := svc.Turn(context.Background(), TurnRequest{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestTurnLLMFailure(t *testing.T) {
	svc, _ := newTestService(t, &scriptedClient{err: errors.New("provider down")})

	_, err := svc.Turn(context.Background(), TurnRequest{SessionID: "sess-1", Message: "hello"})
	require.Error(t, err)
}

func TestSummarizer(t *testing.T) {
	repo := conversations.NewInMemoryRepository()
	conv, err := repo.Create(context.Background(), "")
	require.NoError(t, err)
	_, err = repo.SaveMessage(context.Background(), conv.ID, conversations.RoleUser, "I'm a recruiter, can we talk?", nil)
	require.NoError(t, err)

	client := &scriptedClient{responses: []llm.Response{{Text: "A recruiter reached out to schedule a chat."}}}
	s := NewSummarizer(repo, client)

	summary, err := s.Summarize(context.Background(), conv.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "A recruiter reached out to schedule a chat.", summary)

	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].Messages[0].Content, "recruiter")
}

func TestSummarizerFocusArea(t *testing.T) {
	repo := conversations.NewInMemoryRepository()
	conv, err := repo.Create(context.Background(), "")
	require.NoError(t, err)
	_, err = repo.SaveMessage(context.Background(), conv.ID, conversations.RoleUser, "Let's set up a technical discussion.", nil)
	require.NoError(t, err)

	client := &scriptedClient{responses: []llm.Response{{Text: "Next step: a technical discussion."}}}
	s := NewSummarizer(repo, client)

	_, err = s.Summarize(context.Background(), conv.ID, "next steps")
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].System, "next steps")
}

func TestSummarizerEmptyConversation(t *testing.T) {
	repo := conversations.NewInMemoryRepository()
	conv, err := repo.Create(context.Background(), "")
	require.NoError(t, err)

	s := NewSummarizer(repo, &scriptedClient{responses: []llm.Response{{Text: "x"}}})
	_, err = s.Summarize(context.Background(), conv.ID, "")
	assert.Error(t, err)
}
