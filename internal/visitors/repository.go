package visitors

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for visitor storage. Upsert is keyed
// by the normalized email: repeated captures for the same address must
// converge on a single row.
type Repository interface {
	Upsert(ctx context.Context, req *CaptureRequest) (*Visitor, error)
	GetByID(ctx context.Context, id string) (*Visitor, error)
	GetByEmail(ctx context.Context, email string) (*Visitor, error)
}

// InMemoryRepository is a Repository backed by a map, used in tests and
// when running without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Visitor
	byEmail map[string]string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*Visitor),
		byEmail: make(map[string]string),
	}
}

// Upsert inserts or updates the visitor for the request's email.
func (r *InMemoryRepository) Upsert(ctx context.Context, req *CaptureRequest) (*Visitor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := NormalizeEmail(req.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if id, ok := r.byEmail[email]; ok {
		v := r.byID[id]
		v.Name = req.Name
		if req.Role != "" {
			v.Role = req.Role
		}
		if req.Context != "" {
			v.Context = req.Context
		}
		if req.LinkedIn != "" {
			v.LinkedIn = req.LinkedIn
		}
		v.UpdatedAt = now
		copied := *v
		return &copied, nil
	}

	v := &Visitor{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      req.Name,
		Role:      req.Role,
		Context:   req.Context,
		LinkedIn:  req.LinkedIn,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byID[v.ID] = v
	r.byEmail[email] = v.ID
	copied := *v
	return &copied, nil
}

// GetByID retrieves a visitor by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Visitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return nil, ErrVisitorNotFound
	}
	copied := *v
	return &copied, nil
}

// GetByEmail retrieves a visitor by normalized email
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*Visitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrVisitorNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}
