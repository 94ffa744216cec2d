package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type stubChatClient struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestGroqCompleteMapsRequest(t *testing.T) {
	stub := &stubChatClient{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Content: " Hello there. "},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		},
	}
	client := &GroqClient{client: stub, modelID: "llama-3.3-70b-versatile"}

	resp, err := client.Complete(context.Background(), Request{
		System:      "You are a helpful assistant.",
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		Tools:       []ToolDefinition{{Name: "checkAvailability", Parameters: json.RawMessage(`{"type":"object"}`)}},
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if resp.Text != "Hello there." {
		t.Errorf("expected trimmed text, got %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("expected usage mapped, got %+v", resp.Usage)
	}
	if stub.req.Model != "llama-3.3-70b-versatile" {
		t.Errorf("unexpected model %q", stub.req.Model)
	}
	if len(stub.req.Messages) != 2 || stub.req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("expected system message first, got %+v", stub.req.Messages)
	}
	if len(stub.req.Tools) != 1 || stub.req.Tools[0].Function.Name != "checkAvailability" {
		t.Errorf("expected tool advertised, got %+v", stub.req.Tools)
	}
	if stub.req.MaxTokens != 1024 {
		t.Errorf("expected max tokens forwarded, got %d", stub.req.MaxTokens)
	}
}

func TestGroqCompleteMapsToolCalls(t *testing.T) {
	stub := &stubChatClient{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					ToolCalls: []openai.ToolCall{{
						ID:   "call_1",
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      "createBooking",
							Arguments: `{"visitorId":"v-1"}`,
						},
					}},
				},
				FinishReason: openai.FinishReasonToolCalls,
			}},
		},
	}
	client := &GroqClient{client: stub, modelID: "m"}

	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "book me in"}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected one tool call, got %d", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].Name != "createBooking" || resp.ToolCalls[0].ID != "call_1" {
		t.Errorf("unexpected tool call %+v", resp.ToolCalls[0])
	}
}

func TestGroqCompleteForwardsToolResults(t *testing.T) {
	stub := &stubChatClient{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Content: "done"},
			}},
		},
	}
	client := &GroqClient{client: stub, modelID: "m"}

	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleUser, Content: "book me in"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "createBooking", Arguments: "{}"}}},
			{Role: RoleTool, ToolCallID: "call_1", Content: `{"success":true}`},
		},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(stub.req.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(stub.req.Messages))
	}
	assistant := stub.req.Messages[1]
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID != "call_1" {
		t.Errorf("assistant tool calls not forwarded: %+v", assistant)
	}
	if stub.req.Messages[2].ToolCallID != "call_1" {
		t.Errorf("tool result id not forwarded: %+v", stub.req.Messages[2])
	}
}

func TestGroqCompleteErrors(t *testing.T) {
	stub := &stubChatClient{err: errors.New("rate limited")}
	client := &GroqClient{client: stub, modelID: "m"}

	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error from provider failure")
	}

	stub = &stubChatClient{}
	client = &GroqClient{client: stub, modelID: "m"}
	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNewGroqClientRequiresKey(t *testing.T) {
	if _, err := NewGroqClient("", "", ""); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
