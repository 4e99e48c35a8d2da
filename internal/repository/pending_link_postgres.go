package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gamelink/internal/models"

	"github.com/lib/pq"
)

const (
	pendingLinksCodeKey = "pending_links_code_key"
	uniqueViolation     = "23505"
)

type PendingLinkPostgres struct {
	db *sql.DB
}

func NewPendingLinkPostgres(db *sql.DB) *PendingLinkPostgres {
	return &PendingLinkPostgres{db: db}
}

func (r *PendingLinkPostgres) RequestCode(ctx context.Context, requesterID, code string, now time.Time, ttl time.Duration) (*models.PendingLink, error) {
	// The unique code constraint also covers expired rows the sweeper has not
	// reached yet; those never reserve a code.
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM pending_links WHERE code = $1 AND expires_at <= $2
	`, code, now); err != nil {
		return nil, fmt.Errorf("failed to release expired code: %w", err)
	}

	// The upsert only replaces an expired row, so an active request is never
	// overwritten. A row that expires between the two statements is retried once.
	for attempt := 0; attempt < 2; attempt++ {
		link, err := scanPendingLink(r.db.QueryRowContext(ctx, `
			INSERT INTO pending_links (requester_id, code, created_at, expires_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (requester_id) DO UPDATE SET
				code = EXCLUDED.code,
				created_at = EXCLUDED.created_at,
				expires_at = EXCLUDED.expires_at
			WHERE pending_links.expires_at <= EXCLUDED.created_at
			RETURNING requester_id, code, created_at, expires_at
		`, requesterID, code, now, now.Add(ttl)))
		if err == nil {
			return link, nil
		}
		if isUniqueViolation(err, pendingLinksCodeKey) {
			return nil, ErrCodeTaken
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to create link code: %w", err)
		}

		link, err = scanPendingLink(r.db.QueryRowContext(ctx, `
			SELECT requester_id, code, created_at, expires_at FROM pending_links
			WHERE requester_id = $1 AND expires_at > $2
		`, requesterID, now))
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to read active link code: %w", err)
		}
	}
	return nil, fmt.Errorf("link code for %s changed concurrently", requesterID)
}

func (r *PendingLinkPostgres) FindByCode(ctx context.Context, code string, now time.Time) (*models.PendingLink, error) {
	link, err := scanPendingLink(r.db.QueryRowContext(ctx, `
		SELECT requester_id, code, created_at, expires_at FROM pending_links
		WHERE code = $1 AND expires_at > $2
	`, code, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link code: %w", err)
	}
	return link, nil
}

func (r *PendingLinkPostgres) Consume(ctx context.Context, code, requesterID string, now time.Time) (*models.PendingLink, error) {
	link, err := scanPendingLink(r.db.QueryRowContext(ctx, `
		DELETE FROM pending_links
		WHERE code = $1 AND requester_id = $2 AND expires_at > $3
		RETURNING requester_id, code, created_at, expires_at
	`, code, requesterID, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlreadyConsumed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume link code: %w", err)
	}
	return link, nil
}

func (r *PendingLinkPostgres) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pending_links WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired codes: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func scanPendingLink(row *sql.Row) (*models.PendingLink, error) {
	var link models.PendingLink
	if err := row.Scan(&link.RequesterID, &link.Code, &link.CreatedAt, &link.ExpiresAt); err != nil {
		return nil, err
	}
	return &link, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}
