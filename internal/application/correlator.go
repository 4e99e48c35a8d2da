package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"gamelink/internal/models"
	"gamelink/internal/repository"
	"gamelink/pkg/config"

	"github.com/google/uuid"
)

// Correlator resolves a posted code to the game entity of the player who posted it.
type Correlator struct {
	pendingRepo repository.PendingLink
	feed        LookupFeed
	finalizer   *Finalizer
	lookups     *lookupRegistry
	playerTable string
	timeout     time.Duration
	logger      Logger
	now         func() time.Time
}

func NewCorrelator(pendingRepo repository.PendingLink, feed LookupFeed, finalizer *Finalizer, lookups *lookupRegistry, cfg config.Link, logger Logger) *Correlator {
	return &Correlator{
		pendingRepo: pendingRepo,
		feed:        feed,
		finalizer:   finalizer,
		lookups:     lookups,
		playerTable: cfg.PlayerTable,
		timeout:     cfg.LookupTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Correlate blocks until the lookup resolves, times out or ctx is done.
// Unknown and expired codes end silently.
func (c *Correlator) Correlate(ctx context.Context, code, username string) {
	link, err := c.pendingRepo.FindByCode(ctx, code, c.now())
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	if err != nil {
		c.logger.Error("Failed to look up link code posted by %q: %v", username, err)
		return
	}

	taskID := uuid.NewString()
	resolved := make(chan models.PlayerIdentity, 1)
	cancel := c.feed.SubscribeOnce(lookupQuery(c.playerTable, username), c.timeout, func(row json.RawMessage) {
		var player models.PlayerIdentity
		if err := json.Unmarshal(row, &player); err != nil || player.EntityID == "" {
			c.logger.Warn("[%s] unusable player row for %q: %s", taskID, username, string(row))
			return
		}
		select {
		case resolved <- player:
		default:
		}
	})
	// a sibling lookup that finalizes the code closes done to release this one
	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			close(done)
		})
	}
	id := c.lookups.add(code, stop)
	defer func() {
		c.lookups.remove(code, id)
		stop()
	}()
	c.logger.Debug("[%s] resolving %q for requester %s", taskID, username, link.RequesterID)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case player := <-resolved:
		if player.Username == "" {
			player.Username = username
		}
		c.logger.Debug("[%s] %q resolved to entity %s", taskID, username, player.EntityID)
		c.finalizer.Finalize(ctx, code, link.RequesterID, player)
	case <-timer.C:
		c.logger.Debug("[%s] lookup for %q timed out, request of %s stays pending", taskID, username, link.RequesterID)
	case <-done:
		c.logger.Debug("[%s] code was finalized by another lookup", taskID)
	case <-ctx.Done():
	}
}
