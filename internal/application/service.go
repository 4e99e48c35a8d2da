package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamelink/internal/repository"
	"gamelink/pkg/config"
	"gamelink/pkg/sheets"
)

var ErrCodeSpaceExhausted = errors.New("link code space exhausted")

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Notifier delivers a message to a requester on the chat side channel.
type Notifier interface {
	Notify(ctx context.Context, requesterID, message string) error
}

// Alerter reaches operators about conditions users cannot fix.
type Alerter interface {
	Alert(message string) error
}

type ChatFeed interface {
	Subscribe(query string, handler func(rows []json.RawMessage, since time.Time))
}

type LookupFeed interface {
	SubscribeOnce(query string, timeout time.Duration, onResult func(row json.RawMessage)) func()
}

type Feed interface {
	ChatFeed
	LookupFeed
}

type Service struct {
	LinkService   LinkService
	RosterService RosterService
	Engine        *Engine
	Sweeper       *Sweeper
}

type Deps struct {
	Repos    *repository.Repository
	Feed     Feed
	Notifier Notifier
	Alerter  Alerter
	Sheets   sheets.Client
}

func NewService(deps Deps, cfg *config.Config, logger Logger) *Service {
	lookups := newLookupRegistry()

	finalizer := NewFinalizer(deps.Repos.PendingLink, deps.Repos.LinkedIdentity, deps.Notifier, lookups, logger)
	correlator := NewCorrelator(deps.Repos.PendingLink, deps.Feed, finalizer, lookups, cfg.Link, logger)
	matcher := NewMatcher(cfg.Link.CodePrefix, cfg.Link.CodeLength, cfg.Link.ChannelID)
	chatQuery := fmt.Sprintf("SELECT * FROM %s WHERE channel_id = %d", cfg.Link.ChatTable, cfg.Link.ChannelID)

	return &Service{
		LinkService: NewLinkServiceImpl(deps.Repos.PendingLink, deps.Repos.LinkedIdentity,
			NewCodeGenerator(cfg.Link.CodeLength), deps.Alerter, cfg.Link, logger),
		RosterService: NewRosterServiceImpl(deps.Repos.LinkedIdentity,
			NewSheetsServiceImpl(deps.Sheets, cfg.Sheets.SpreadsheetID, cfg.Sheets.OwnerEmail), logger),
		Engine:  NewEngine(deps.Feed, matcher, correlator, chatQuery, logger),
		Sweeper: NewSweeper(deps.Repos.PendingLink, cfg.Link.EffectiveSweepInterval(), logger),
	}
}

// LogAlerter is used when no alert channel is configured.
type LogAlerter struct {
	Logger Logger
}

func (a LogAlerter) Alert(message string) error {
	a.Logger.Error("ALERT: %s", message)
	return nil
}
