package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gamelink/internal/models"
)

// Engine owns the chat subscription. Rows are matched in delivery order on
// the feed's goroutine; every match is correlated in its own goroutine so a
// slow lookup never delays the next chat event.
type Engine struct {
	feed       ChatFeed
	matcher    *Matcher
	correlator *Correlator
	chatQuery  string
	logger     Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewEngine(feed ChatFeed, matcher *Matcher, correlator *Correlator, chatQuery string, logger Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		feed:       feed,
		matcher:    matcher,
		correlator: correlator,
		chatQuery:  chatQuery,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (e *Engine) Init() error {
	e.feed.Subscribe(e.chatQuery, e.HandleRows)
	return nil
}

func (e *Engine) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		e.cancel()
	case <-e.ctx.Done():
	}
}

// Stop cancels every in-flight correlation and waits for them to return.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) HandleRows(rows []json.RawMessage, since time.Time) {
	for _, raw := range rows {
		var ev models.ChatEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			e.logger.Debug("Skipping malformed chat row: %v", err)
			continue
		}

		code, ok := e.matcher.Match(ev, since)
		if !ok {
			continue
		}
		e.logger.Info("Link code posted in chat by %q", ev.Username)
		e.spawn(code, ev.Username)
	}
}

func (e *Engine) spawn(code, username string) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("Correlation for %q panicked: %v", username, r)
			}
		}()
		e.correlator.Correlate(e.ctx, code, username)
	}()
}
