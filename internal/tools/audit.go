package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/digital-twin-ai/platform/internal/observability/metrics"
	"github.com/digital-twin-ai/platform/pkg/logging"
)

// AuditRecord is one tool dispatch, success or failure.
type AuditRecord struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id,omitempty"`
	ToolName       string          `json:"tool_name"`
	Input          json.RawMessage `json:"input,omitempty"`
	Output         json.RawMessage `json:"output,omitempty"`
	Status         string          `json:"status"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AuditWriter persists tool call records.
type AuditWriter interface {
	Write(ctx context.Context, record AuditRecord) error
}

// AuditLog writes tool call records to the tool_calls table.
type AuditLog struct {
	db *sql.DB
}

// NewAuditLog creates a database-backed audit log.
func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Write records one tool dispatch.
func (l *AuditLog) Write(ctx context.Context, record AuditRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tool_calls (
			id, conversation_id, tool_name, input, output,
			status, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := l.db.ExecContext(ctx, query,
		record.ID,
		nullString(record.ConversationID),
		record.ToolName,
		nullJSON(record.Input),
		nullJSON(record.Output),
		record.Status,
		nullString(record.ErrorMessage),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("tools: failed to write audit record: %w", err)
	}
	return nil
}

// AsyncAuditLog decouples audit writes from the request path: Write
// enqueues without blocking and a single worker drains the queue.
// A full queue drops the record and bumps a counter; audit loss never
// fails a tool call.
type AsyncAuditLog struct {
	ch      chan AuditRecord
	writer  AuditWriter
	metrics *metrics.ChatMetrics
	logger  *logging.Logger

	wg       sync.WaitGroup
	closeOne sync.Once
}

// NewAsyncAuditLog starts the drain worker over the given writer.
func NewAsyncAuditLog(writer AuditWriter, buffer int, m *metrics.ChatMetrics, logger *logging.Logger) *AsyncAuditLog {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = logging.Default()
	}
	l := &AsyncAuditLog{
		ch:      make(chan AuditRecord, buffer),
		writer:  writer,
		metrics: m,
		logger:  logger,
	}
	l.wg.Add(1)
	go l.drain()
	return l
}

// Write enqueues the record, dropping it if the queue is full.
func (l *AsyncAuditLog) Write(ctx context.Context, record AuditRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	select {
	case l.ch <- record:
	default:
		l.metrics.ObserveAuditDrop()
		l.logger.Warn("audit queue full, dropping record",
			"tool", record.ToolName,
			"conversation_id", record.ConversationID,
		)
	}
	return nil
}

// Close stops accepting records and waits for the queue to drain.
func (l *AsyncAuditLog) Close() {
	l.closeOne.Do(func() {
		close(l.ch)
	})
	l.wg.Wait()
}

func (l *AsyncAuditLog) drain() {
	defer l.wg.Done()
	for record := range l.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := l.writer.Write(ctx, record); err != nil {
			l.logger.Error("audit write failed", "error", err, "tool", record.ToolName)
		}
		cancel()
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
