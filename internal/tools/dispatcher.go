package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/digital-twin-ai/platform/internal/bookings"
	"github.com/digital-twin-ai/platform/internal/llm"
	"github.com/digital-twin-ai/platform/internal/observability/metrics"
	"github.com/digital-twin-ai/platform/internal/visitors"
	"github.com/digital-twin-ai/platform/pkg/logging"
)

// Result is what the model sees after a tool call. Failures are data,
// not errors: the model reads the message and recovers in conversation.
// Message is set on every result, success or not.
type Result struct {
	Success bool
	Message string
	Error   string
	Data    map[string]any
}

// MarshalJSON flattens Data next to success/message, so tool-specific
// fields like available or visitorId sit at the top level of the wire
// shape.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Data)+3)
	for k, v := range r.Data {
		out[k] = v
	}
	out["success"] = r.Success
	out["message"] = r.Message
	if r.Error != "" {
		out["error"] = r.Error
	}
	return json.Marshal(out)
}

// JSON renders the result for the tool role message.
func (r Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"message":"internal error"}`
	}
	return string(b)
}

func failure(message string) Result {
	return Result{Success: false, Message: message, Error: message}
}

// VisitorCapturer saves visitor contact details.
type VisitorCapturer interface {
	Capture(ctx context.Context, req *visitors.CaptureRequest) (*visitors.Visitor, error)
}

// AvailabilityService reports free meeting times.
type AvailabilityService interface {
	Check(ctx context.Context, date string, slot bookings.Slot) (bookings.AvailabilityResult, error)
}

// BookingCreator records a confirmed meeting request.
type BookingCreator interface {
	Create(ctx context.Context, req *bookings.CreateRequest) (*bookings.Booking, string, error)
}

// Summarizer produces a summary of the conversation so far.
type Summarizer interface {
	Summarize(ctx context.Context, conversationID, focusArea string) (string, error)
}

// Dispatcher routes model tool calls to the domain services. Every
// dispatch is audited best effort and counted.
type Dispatcher struct {
	capturer     VisitorCapturer
	availability AvailabilityService
	booker       BookingCreator
	summarizer   Summarizer
	audit        AuditWriter
	metrics      *metrics.ChatMetrics
	logger       *logging.Logger
}

// NewDispatcher creates a dispatcher. audit may be nil to disable
// auditing (tests).
func NewDispatcher(capturer VisitorCapturer, availability AvailabilityService, booker BookingCreator, summarizer Summarizer, audit AuditWriter, m *metrics.ChatMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		capturer:     capturer,
		availability: availability,
		booker:       booker,
		summarizer:   summarizer,
		audit:        audit,
		metrics:      m,
		logger:       logger,
	}
}

// Dispatch executes one tool call. It never returns an error to the
// caller: anything that goes wrong, including a panic in a tool,
// becomes a failed Result the model can react to.
func (d *Dispatcher) Dispatch(ctx context.Context, conversationID string, call llm.ToolCall) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool dispatch panicked", "tool", call.Name, "panic", fmt.Sprint(r))
			result = failure("Tool execution failed. Please try again.")
		}
		status := "success"
		if !result.Success {
			status = "error"
		}
		d.metrics.ObserveToolCall(call.Name, status)
		d.writeAudit(ctx, conversationID, call, result)
	}()

	switch call.Name {
	case ToolCaptureVisitor:
		return d.captureVisitor(ctx, conversationID, call.Arguments)
	case ToolCheckAvailability:
		return d.checkAvailability(ctx, call.Arguments)
	case ToolCreateBooking:
		return d.createBooking(ctx, conversationID, call.Arguments)
	case ToolGenerateSummary:
		return d.generateSummary(ctx, conversationID, call.Arguments)
	default:
		return failure(fmt.Sprintf("Unknown tool: %s", call.Name))
	}
}

func (d *Dispatcher) captureVisitor(ctx context.Context, conversationID, args string) Result {
	var req visitors.CaptureRequest
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return failure("Invalid captureVisitor arguments.")
	}
	req.ConversationID = conversationID

	visitor, err := d.capturer.Capture(ctx, &req)
	if err != nil {
		return failure(err.Error())
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Visitor %s captured.", visitor.Name),
		Data: map[string]any{
			"visitorId": visitor.ID,
			"email":     visitor.Email,
		},
	}
}

func (d *Dispatcher) checkAvailability(ctx context.Context, args string) Result {
	var req struct {
		Date     string `json:"date"`
		TimeSlot string `json:"timeSlot"`
	}
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return failure("Invalid checkAvailability arguments.")
	}

	res, err := d.availability.Check(ctx, req.Date, bookings.Slot(req.TimeSlot))
	if err != nil {
		out := failure(res.Message)
		out.Data = map[string]any{"available": false}
		return out
	}
	return Result{
		Success: true,
		Message: res.Message,
		Data: map[string]any{
			"available":      res.Available,
			"suggestedTimes": res.SuggestedTimes,
		},
	}
}

func (d *Dispatcher) createBooking(ctx context.Context, conversationID, args string) Result {
	var req bookings.CreateRequest
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return failure("Invalid createBooking arguments.")
	}
	req.ConversationID = conversationID

	booking, message, err := d.booker.Create(ctx, &req)
	if err != nil {
		return failure(err.Error())
	}
	return Result{
		Success: true,
		Message: message,
		Data: map[string]any{
			"bookingId": booking.ID,
			"status":    string(booking.Status),
		},
	}
}

func (d *Dispatcher) generateSummary(ctx context.Context, conversationID, args string) Result {
	var req struct {
		FocusArea string `json:"focusArea"`
	}
	if args != "" {
		// Arguments are optional here; a malformed payload just means
		// no focus area.
		_ = json.Unmarshal([]byte(args), &req)
	}

	summary, err := d.summarizer.Summarize(ctx, conversationID, req.FocusArea)
	if err != nil {
		return failure("Could not generate a summary right now.")
	}
	return Result{
		Success: true,
		Message: "Summary generated",
		Data:    map[string]any{"summary": summary},
	}
}

func (d *Dispatcher) writeAudit(ctx context.Context, conversationID string, call llm.ToolCall, result Result) {
	if d.audit == nil {
		return
	}
	status := "success"
	errMsg := ""
	if !result.Success {
		status = "error"
		errMsg = result.Error
	}
	output, _ := json.Marshal(result)
	record := AuditRecord{
		ConversationID: conversationID,
		ToolName:       call.Name,
		Input:          json.RawMessage(call.Arguments),
		Output:         output,
		Status:         status,
		ErrorMessage:   errMsg,
	}
	if err := d.audit.Write(ctx, record); err != nil {
		d.logger.Warn("tool audit failed", "error", err, "tool", call.Name)
	}
}
