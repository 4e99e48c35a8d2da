package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gamelink/internal/models"

	"github.com/lib/pq"
)

type LinkedIdentityPostgres struct {
	db *sql.DB
}

func NewLinkedIdentityPostgres(db *sql.DB) *LinkedIdentityPostgres {
	return &LinkedIdentityPostgres{db: db}
}

func (r *LinkedIdentityPostgres) Create(ctx context.Context, link *models.LinkedIdentity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO linked_identities (entity_id, requester_id, username, linked_at)
		VALUES ($1, $2, $3, $4)
	`, link.EntityID, link.RequesterID, link.Username, link.LinkedAt)
	if isUniqueViolation(err, "") {
		var pqErr *pq.Error
		errors.As(err, &pqErr)
		return fmt.Errorf("%w: %s", ErrAlreadyLinked, pqErr.Constraint)
	}
	if err != nil {
		return fmt.Errorf("failed to create linked identity: %w", err)
	}
	return nil
}

func (r *LinkedIdentityPostgres) GetByRequester(ctx context.Context, requesterID string) (*models.LinkedIdentity, error) {
	var link models.LinkedIdentity
	err := r.db.QueryRowContext(ctx, `
		SELECT entity_id, requester_id, username, linked_at
		FROM linked_identities
		WHERE requester_id = $1
	`, requesterID).Scan(&link.EntityID, &link.RequesterID, &link.Username, &link.LinkedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get linked identity: %w", err)
	}
	return &link, nil
}

func (r *LinkedIdentityPostgres) List(ctx context.Context) ([]models.LinkedIdentity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entity_id, requester_id, username, linked_at
		FROM linked_identities
		ORDER BY linked_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked identities: %w", err)
	}
	defer rows.Close()

	var links []models.LinkedIdentity
	for rows.Next() {
		var link models.LinkedIdentity
		if err := rows.Scan(&link.EntityID, &link.RequesterID, &link.Username, &link.LinkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan linked identity: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}
