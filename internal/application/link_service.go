package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamelink/internal/models"
	"gamelink/internal/repository"
	"gamelink/pkg/config"
)

type LinkService interface {
	RequestCode(ctx context.Context, requesterID string) (*models.PendingLink, error)
	GetLinkedIdentity(ctx context.Context, requesterID string) (*models.LinkedIdentity, error)
}

type LinkServiceImpl struct {
	pendingRepo repository.PendingLink
	linkedRepo  repository.LinkedIdentity
	codes       CodeSource
	alerter     Alerter
	cfg         config.Link
	logger      Logger
	now         func() time.Time
}

func NewLinkServiceImpl(pendingRepo repository.PendingLink, linkedRepo repository.LinkedIdentity, codes CodeSource, alerter Alerter, cfg config.Link, logger Logger) *LinkServiceImpl {
	return &LinkServiceImpl{
		pendingRepo: pendingRepo,
		linkedRepo:  linkedRepo,
		codes:       codes,
		alerter:     alerter,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// RequestCode returns the requester's active code, or issues a new one.
// Repeated calls within the TTL return the same code and expiry.
func (s *LinkServiceImpl) RequestCode(ctx context.Context, requesterID string) (*models.PendingLink, error) {
	existing, err := s.linkedRepo.GetByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing link: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w to %s", repository.ErrAlreadyLinked, existing.Username)
	}

	for attempt := 1; attempt <= s.cfg.MaxCodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, err
		}

		link, err := s.pendingRepo.RequestCode(ctx, requesterID, code, s.now(), s.cfg.CodeTTL)
		if errors.Is(err, repository.ErrCodeTaken) {
			s.logger.Debug("Link code collision on attempt %d for requester %s", attempt, requesterID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create link code: %w", err)
		}

		if link.Code == code {
			s.logger.Info("Generated link code for requester %s, expires at %s", requesterID, link.ExpiresAt.Format(time.RFC3339))
		}
		return link, nil
	}

	alert := fmt.Sprintf("%d consecutive %d-digit link codes collided for requester %s; code space is too small for the load",
		s.cfg.MaxCodeAttempts, s.cfg.CodeLength, requesterID)
	s.logger.Error("Link code space exhausted: %s", alert)
	if err := s.alerter.Alert(alert); err != nil {
		s.logger.Error("Failed to deliver alert: %v", err)
	}
	return nil, ErrCodeSpaceExhausted
}

func (s *LinkServiceImpl) GetLinkedIdentity(ctx context.Context, requesterID string) (*models.LinkedIdentity, error) {
	return s.linkedRepo.GetByRequester(ctx, requesterID)
}
