package conversations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores conversations and messages in the
// relational database.
type PostgresRepository struct {
	db db

	// The default project id is resolved once and cached for the life
	// of the process.
	projectMu sync.Mutex
	projectID string
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("conversations: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) defaultProject(ctx context.Context) (string, error) {
	r.projectMu.Lock()
	defer r.projectMu.Unlock()

	if r.projectID != "" {
		return r.projectID, nil
	}

	var id string
	err := r.db.QueryRow(ctx,
		`SELECT id FROM projects WHERE name = $1 LIMIT 1`, DefaultProjectName,
	).Scan(&id)
	if err == pgx.ErrNoRows {
		err = r.db.QueryRow(ctx,
			`INSERT INTO projects (id, name, description) VALUES ($1, $2, $3) RETURNING id`,
			uuid.New(), DefaultProjectName, "Primary Digital Twin instance",
		).Scan(&id)
	}
	if err != nil {
		return "", fmt.Errorf("conversations: resolve default project: %w", err)
	}

	r.projectID = id
	return id, nil
}

// Create starts a new conversation under the default project.
func (r *PostgresRepository) Create(ctx context.Context, sessionID string) (*Conversation, error) {
	projectID, err := r.defaultProject(ctx)
	if err != nil {
		return nil, err
	}

	var c Conversation
	err = r.db.QueryRow(ctx, `
		INSERT INTO conversations (id, project_id, visitor_session_id)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING id, project_id, COALESCE(visitor_session_id, ''), created_at, updated_at`,
		uuid.New(), projectID, sessionID,
	).Scan(&c.ID, &c.ProjectID, &c.SessionID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("conversations: insert failed: %w", err)
	}
	return &c, nil
}

// Get returns a conversation by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, COALESCE(visitor_id::text, ''),
		    COALESCE(visitor_session_id, ''), COALESCE(title, ''),
		    created_at, updated_at
		FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.ProjectID, &c.VisitorID, &c.SessionID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversations: select failed: %w", err)
	}
	return &c, nil
}

// SaveMessage appends one immutable turn.
func (r *PostgresRepository) SaveMessage(ctx context.Context, conversationID, role, content string, metadata json.RawMessage) (*Message, error) {
	if conversationID == "" {
		return nil, ErrMissingConversation
	}
	if !ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	m := Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       metadata,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		uuid.New(), conversationID, role, content, metadata,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("conversations: insert message failed: %w", err)
	}
	return &m, nil
}

// History returns messages ordered by creation time ascending.
func (r *PostgresRepository) History(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, role, content, metadata, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversations: select messages failed: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if out == nil {
		out = []Message{}
	}
	return out, rows.Err()
}

// UpdateTitle sets the conversation title.
func (r *PostgresRepository) UpdateTitle(ctx context.Context, conversationID, title string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE conversations SET title = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, conversationID, title)
	if err != nil {
		return fmt.Errorf("conversations: update title failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// LinkVisitor records the visitor owning this conversation.
func (r *PostgresRepository) LinkVisitor(ctx context.Context, conversationID, visitorID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE conversations SET visitor_id = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, conversationID, visitorID)
	if err != nil {
		return fmt.Errorf("conversations: link visitor failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}
	return nil
}
