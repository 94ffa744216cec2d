package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-twin-ai/platform/internal/bookings"
	"github.com/digital-twin-ai/platform/internal/llm"
	"github.com/digital-twin-ai/platform/internal/visitors"
)

type stubCapturer struct {
	visitor *visitors.Visitor
	err     error
	got     *visitors.CaptureRequest
}

func (s *stubCapturer) Capture(ctx context.Context, req *visitors.CaptureRequest) (*visitors.Visitor, error) {
	s.got = req
	return s.visitor, s.err
}

type stubAvailability struct {
	result bookings.AvailabilityResult
	err    error
}

func (s *stubAvailability) Check(ctx context.Context, date string, slot bookings.Slot) (bookings.AvailabilityResult, error) {
	return s.result, s.err
}

type stubBooker struct {
	booking *bookings.Booking
	message string
	err     error
}

func (s *stubBooker) Create(ctx context.Context, req *bookings.CreateRequest) (*bookings.Booking, string, error) {
	return s.booking, s.message, s.err
}

type stubSummarizer struct {
	summary   string
	err       error
	focusArea string
}

func (s *stubSummarizer) Summarize(ctx context.Context, conversationID, focusArea string) (string, error) {
	s.focusArea = focusArea
	return s.summary, s.err
}

type panicBooker struct{}

func (panicBooker) Create(ctx context.Context, req *bookings.CreateRequest) (*bookings.Booking, string, error) {
	panic("nil map write")
}

type memoryAudit struct {
	mu      sync.Mutex
	records []AuditRecord
	err     error
}

func (a *memoryAudit) Write(ctx context.Context, record AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
	return a.err
}

func newDispatcher(capturer VisitorCapturer, availability AvailabilityService, booker BookingCreator, summarizer Summarizer, audit AuditWriter) *Dispatcher {
	return NewDispatcher(capturer, availability, booker, summarizer, audit, nil, nil)
}

func TestDispatchCaptureVisitor(t *testing.T) {
	capturer := &stubCapturer{visitor: &visitors.Visitor{ID: "v-1", Name: "Ada", Email: "ada@example.com"}}
	audit := &memoryAudit{}
	d := newDispatcher(capturer, nil, nil, nil, audit)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{
		ID:        "call_1",
		Name:      ToolCaptureVisitor,
		Arguments: `{"name":"Ada","email":"ada@example.com","role":"recruiter"}`,
	})

	assert.True(t, result.Success)
	assert.Equal(t, "v-1", result.Data["visitorId"])
	require.NotNil(t, capturer.got)
	assert.Equal(t, "c-1", capturer.got.ConversationID)

	require.Len(t, audit.records, 1)
	assert.Equal(t, ToolCaptureVisitor, audit.records[0].ToolName)
	assert.Equal(t, "success", audit.records[0].Status)
}

func TestDispatchCheckAvailability(t *testing.T) {
	availability := &stubAvailability{result: bookings.AvailabilityResult{
		Available:      true,
		SuggestedTimes: []string{"09:00", "10:00"},
		Message:        "Available times on 2025-06-10: 09:00, 10:00",
	}}
	d := newDispatcher(nil, availability, nil, nil, nil)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{
		Name:      ToolCheckAvailability,
		Arguments: `{"date":"2025-06-10","timeSlot":"morning"}`,
	})

	assert.True(t, result.Success)
	assert.Equal(t, true, result.Data["available"])
}

func TestDispatchValidationFailureIsResult(t *testing.T) {
	availability := &stubAvailability{
		result: bookings.AvailabilityResult{Message: "Invalid date format. Use YYYY-MM-DD."},
		err:    bookings.ErrInvalidDate,
	}
	audit := &memoryAudit{}
	d := newDispatcher(nil, availability, nil, nil, audit)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{
		Name:      ToolCheckAvailability,
		Arguments: `{"date":"tomorrow","timeSlot":"morning"}`,
	})

	assert.False(t, result.Success)
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD.", result.Message)
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD.", result.Error)
	assert.Equal(t, false, result.Data["available"])
	require.Len(t, audit.records, 1)
	assert.Equal(t, "error", audit.records[0].Status)
	assert.NotEmpty(t, audit.records[0].ErrorMessage)
}

func TestDispatchCreateBooking(t *testing.T) {
	booker := &stubBooker{
		booking: &bookings.Booking{ID: "b-1", Status: bookings.StatusPending},
		message: "Booking confirmed for 2025-06-10T09:00:00. Confirmation sent to ada@example.com.",
	}
	d := newDispatcher(nil, nil, booker, nil, nil)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{
		Name:      ToolCreateBooking,
		Arguments: `{"visitorId":"v-1","requestedDatetime":"2025-06-10T09:00:00","meetingType":"quick_call"}`,
	})

	assert.True(t, result.Success)
	assert.Equal(t, "b-1", result.Data["bookingId"])
	assert.Equal(t, "pending", result.Data["status"])
}

func TestDispatchGenerateSummary(t *testing.T) {
	summarizer := &stubSummarizer{summary: "We discussed a quick call."}
	d := newDispatcher(nil, nil, nil, summarizer, nil)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{Name: ToolGenerateSummary, Arguments: "{}"})
	assert.True(t, result.Success)
	assert.Equal(t, "We discussed a quick call.", result.Data["summary"])
	assert.Empty(t, summarizer.focusArea)
}

func TestDispatchGenerateSummaryFocusArea(t *testing.T) {
	summarizer := &stubSummarizer{summary: "Next steps: schedule a call."}
	d := newDispatcher(nil, nil, nil, summarizer, nil)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{
		Name:      ToolGenerateSummary,
		Arguments: `{"focusArea":"next steps"}`,
	})
	assert.True(t, result.Success)
	assert.Equal(t, "next steps", summarizer.focusArea)
}

func TestDispatchUnknownTool(t *testing.T) {
	d := newDispatcher(nil, nil, nil, nil, nil)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{Name: "transferMoney", Arguments: "{}"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Unknown tool")
}

func TestDispatchMalformedArguments(t *testing.T) {
	d := newDispatcher(&stubCapturer{}, nil, nil, nil, nil)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{Name: ToolCaptureVisitor, Arguments: "{"})
	assert.False(t, result.Success)
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	audit := &memoryAudit{}
	d := newDispatcher(nil, nil, panicBooker{}, nil, audit)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{
		Name:      ToolCreateBooking,
		Arguments: `{"visitorId":"v-1","requestedDatetime":"2025-06-10T09:00:00","meetingType":"quick_call"}`,
	})

	assert.False(t, result.Success)
	assert.Equal(t, "Tool execution failed. Please try again.", result.Message)
	require.Len(t, audit.records, 1)
}

func TestDispatchAuditFailureDoesNotFailCall(t *testing.T) {
	audit := &memoryAudit{err: errors.New("database down")}
	d := newDispatcher(nil, nil, nil, &stubSummarizer{summary: "ok"}, audit)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{Name: ToolGenerateSummary, Arguments: "{}"})
	assert.True(t, result.Success)
}

func TestResultJSONFlattensToolFields(t *testing.T) {
	result := Result{Success: true, Message: "done", Data: map[string]any{"bookingId": "b-1"}}

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.JSON()), &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "done", decoded["message"])
	assert.Equal(t, "b-1", decoded["bookingId"])
	assert.NotContains(t, decoded, "data")
}

func TestCheckAvailabilityWireShape(t *testing.T) {
	availability := &stubAvailability{result: bookings.AvailabilityResult{
		Available:      true,
		SuggestedTimes: []string{"10:00", "11:00"},
		Message:        "Available times on 2025-06-10: 10:00, 11:00",
	}}
	d := newDispatcher(nil, availability, nil, nil, nil)

	result := d.Dispatch(context.Background(), "c-1", llm.ToolCall{
		Name:      ToolCheckAvailability,
		Arguments: `{"date":"2025-06-10","timeSlot":"morning"}`,
	})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.JSON()), &decoded))
	assert.Equal(t, true, decoded["available"])
	assert.Equal(t, []any{"10:00", "11:00"}, decoded["suggestedTimes"])
	assert.NotEmpty(t, decoded["message"])
}
