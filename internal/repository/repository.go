package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gamelink/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyConsumed = errors.New("link code already consumed")
	ErrCodeTaken       = errors.New("link code already in use")
	ErrAlreadyLinked   = errors.New("identity already linked")
)

// PendingLink stores outstanding link requests. Every mutation is a single
// store-level atomic operation.
type PendingLink interface {
	// RequestCode returns the requester's active request if one exists,
	// otherwise stores code for them. ErrCodeTaken means code collided.
	RequestCode(ctx context.Context, requesterID, code string, now time.Time, ttl time.Duration) (*models.PendingLink, error)
	FindByCode(ctx context.Context, code string, now time.Time) (*models.PendingLink, error)
	// Consume deletes and returns the active request of requesterID for code.
	// Exactly one concurrent caller wins; the rest get ErrAlreadyConsumed, as do
	// callers whose code now belongs to a different requester.
	Consume(ctx context.Context, code, requesterID string, now time.Time) (*models.PendingLink, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type LinkedIdentity interface {
	Create(ctx context.Context, link *models.LinkedIdentity) error
	GetByRequester(ctx context.Context, requesterID string) (*models.LinkedIdentity, error)
	List(ctx context.Context) ([]models.LinkedIdentity, error)
}

type Repository struct {
	PendingLink
	LinkedIdentity
	db *sql.DB
}

// NewRepository reads Postgres directly: other instances consume codes behind
// any in-process cache, so reads must see the shared store.
func NewRepository(cfg *Config, db *sql.DB) *Repository {
	return &Repository{
		PendingLink:    NewPendingLinkPostgres(db),
		LinkedIdentity: NewLinkedIdentityPostgres(db),
		db:             db,
	}
}

// NewMemoryRepository keeps everything in process. Single instance only.
func NewMemoryRepository() *Repository {
	return &Repository{
		PendingLink:    NewCachedPendingLink(NewPendingLinkMemory()),
		LinkedIdentity: NewLinkedIdentityMemory(),
	}
}
