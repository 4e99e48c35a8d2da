package application

import (
	"context"
	"fmt"
	"time"

	"gamelink/internal/repository"

	"github.com/robfig/cron/v3"
)

// Sweeper deletes expired pending links on a fixed schedule.
type Sweeper struct {
	pendingRepo repository.PendingLink
	interval    time.Duration
	cron        *cron.Cron
	logger      Logger
	now         func() time.Time
}

func NewSweeper(pendingRepo repository.PendingLink, interval time.Duration, logger Logger) *Sweeper {
	return &Sweeper{
		pendingRepo: pendingRepo,
		interval:    interval,
		cron:        cron.New(),
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Sweeper) Init() error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.Sweep); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	return nil
}

func (s *Sweeper) Run(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("Expired link sweep scheduled every %s", s.interval)
}

func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	swept, err := s.pendingRepo.SweepExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to sweep expired link codes: %v", err)
		return
	}
	if swept > 0 {
		s.logger.Debug("Swept %d expired link codes", swept)
	}
}
