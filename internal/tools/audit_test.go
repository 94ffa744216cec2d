package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestAuditLogWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO tool_calls").
		WithArgs(sqlmock.AnyArg(), "c-1", "createBooking", sqlmock.AnyArg(), sqlmock.AnyArg(), "success", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	log := NewAuditLog(db)
	err = log.Write(context.Background(), AuditRecord{
		ConversationID: "c-1",
		ToolName:       "createBooking",
		Input:          json.RawMessage(`{"visitorId":"v-1"}`),
		Output:         json.RawMessage(`{"success":true}`),
		Status:         "success",
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuditLogWriteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO tool_calls").
		WillReturnError(errors.New("connection refused"))

	log := NewAuditLog(db)
	if err := log.Write(context.Background(), AuditRecord{ToolName: "generateSummary", Status: "success"}); err == nil {
		t.Fatal("expected error from failed insert")
	}
}

type blockingWriter struct {
	mu      sync.Mutex
	release chan struct{}
	written []AuditRecord
}

func (w *blockingWriter) Write(ctx context.Context, record AuditRecord) error {
	<-w.release
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = append(w.written, record)
	return nil
}

func (w *blockingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.written)
}

func TestAsyncAuditLogDrains(t *testing.T) {
	writer := &blockingWriter{release: make(chan struct{})}
	close(writer.release)
	log := NewAsyncAuditLog(writer, 8, nil, nil)

	for i := 0; i < 3; i++ {
		if err := log.Write(context.Background(), AuditRecord{ToolName: "checkAvailability", Status: "success"}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	log.Close()

	if got := writer.count(); got != 3 {
		t.Errorf("expected 3 records drained, got %d", got)
	}
}

func TestAsyncAuditLogDropsWhenFull(t *testing.T) {
	writer := &blockingWriter{release: make(chan struct{})}
	log := NewAsyncAuditLog(writer, 1, nil, nil)

	// The worker blocks on the first record; the buffer holds one more.
	// Everything past that must drop without blocking the caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			log.Write(context.Background(), AuditRecord{ToolName: "captureVisitor", Status: "success"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Write blocked on a full queue")
	}

	close(writer.release)
	log.Close()
	if got := writer.count(); got > 2 {
		t.Errorf("expected at most 2 records written, got %d", got)
	}
}
