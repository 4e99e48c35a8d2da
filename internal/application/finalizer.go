package application

import (
	"context"
	"errors"
	"time"

	"gamelink/internal/models"
	"gamelink/internal/repository"
)

// Finalizer turns a resolved pending request into a durable link exactly once.
type Finalizer struct {
	pendingRepo repository.PendingLink
	linkedRepo  repository.LinkedIdentity
	notifier    Notifier
	lookups     *lookupRegistry
	logger      Logger
	now         func() time.Time
}

func NewFinalizer(pendingRepo repository.PendingLink, linkedRepo repository.LinkedIdentity, notifier Notifier, lookups *lookupRegistry, logger Logger) *Finalizer {
	return &Finalizer{
		pendingRepo: pendingRepo,
		linkedRepo:  linkedRepo,
		notifier:    notifier,
		lookups:     lookups,
		logger:      logger,
		now:         time.Now,
	}
}

func (f *Finalizer) Finalize(ctx context.Context, code, requesterID string, player models.PlayerIdentity) {
	defer f.lookups.cancelAll(code)

	link, err := f.pendingRepo.Consume(ctx, code, requesterID, f.now())
	if errors.Is(err, repository.ErrAlreadyConsumed) {
		f.logger.Debug("Link request of %s already finalized", requesterID)
		return
	}
	if err != nil && ctx.Err() != nil {
		// nothing was consumed; the request stays pending for the next run
		f.logger.Warn("Stopped finalizing link code of %s: %v", requesterID, err)
		return
	}

	// once consumed, the link must be written and reported even during shutdown
	ctx = context.WithoutCancel(ctx)
	if err != nil {
		f.logger.Error("Failed to consume link code of %s: %v", requesterID, err)
		f.notify(ctx, requesterID, msgLinkFailed)
		return
	}

	identity := &models.LinkedIdentity{
		EntityID:    player.EntityID.String(),
		RequesterID: link.RequesterID,
		Username:    player.Username,
		LinkedAt:    f.now(),
	}

	err = f.linkedRepo.Create(ctx, identity)
	switch {
	case errors.Is(err, repository.ErrAlreadyLinked):
		f.logger.Warn("Rejected link of %s to entity %s (%s): %v", link.RequesterID, identity.EntityID, identity.Username, err)
		f.notify(ctx, link.RequesterID, msgAlreadyLinked)
	case err != nil:
		f.logger.Error("Failed to store link of %s to entity %s: %v", link.RequesterID, identity.EntityID, err)
		f.notify(ctx, link.RequesterID, msgLinkFailed)
	default:
		f.logger.Info("Linked %s to %s (entity %s)", link.RequesterID, identity.Username, identity.EntityID)
		f.notify(ctx, link.RequesterID, linkedMessage(identity.Username))
	}
}

// notify failures are logged only; the link outcome is already durable.
func (f *Finalizer) notify(ctx context.Context, requesterID, message string) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := f.notifier.Notify(ctx, requesterID, message); err != nil {
		f.logger.Warn("Failed to notify %s: %v", requesterID, err)
	}
}
