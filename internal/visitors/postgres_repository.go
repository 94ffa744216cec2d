package visitors

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores visitors in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("visitors: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Upsert inserts or updates the row for the request's normalized email
// in one statement, so concurrent captures of the same new address
// cannot fork into two rows.
func (r *PostgresRepository) Upsert(ctx context.Context, req *CaptureRequest) (*Visitor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := NormalizeEmail(req.Email)

	query := `
		INSERT INTO visitors (id, email, name, role, context, linkedin)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		ON CONFLICT (email) DO UPDATE SET
		    name = EXCLUDED.name,
		    role = COALESCE(EXCLUDED.role, visitors.role),
		    context = COALESCE(EXCLUDED.context, visitors.context),
		    linkedin = COALESCE(EXCLUDED.linkedin, visitors.linkedin),
		    updated_at = CURRENT_TIMESTAMP
		RETURNING id, email, name, COALESCE(role, ''), COALESCE(context, ''),
		    COALESCE(linkedin, ''), created_at, updated_at
	`
	var v Visitor
	if err := r.db.QueryRow(ctx, query,
		uuid.New(),
		email,
		req.Name,
		string(req.Role),
		req.Context,
		req.LinkedIn,
	).Scan(&v.ID, &v.Email, &v.Name, &v.Role, &v.Context, &v.LinkedIn, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, fmt.Errorf("visitors: upsert failed: %w", err)
	}
	return &v, nil
}

// GetByID fetches a visitor by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Visitor, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

// GetByEmail fetches a visitor by normalized email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Visitor, error) {
	return r.get(ctx, `WHERE email = $1`, NormalizeEmail(email))
}

func (r *PostgresRepository) get(ctx context.Context, where string, arg any) (*Visitor, error) {
	query := `
		SELECT id, email, name, COALESCE(role, ''), COALESCE(context, ''),
		    COALESCE(linkedin, ''), created_at, updated_at
		FROM visitors ` + where
	var v Visitor
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&v.ID, &v.Email, &v.Name, &v.Role, &v.Context, &v.LinkedIn, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrVisitorNotFound
		}
		return nil, fmt.Errorf("visitors: select failed: %w", err)
	}
	return &v, nil
}
