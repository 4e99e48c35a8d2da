package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"gamelink/internal/repository"
	"gamelink/pkg/config"
)

type nopLogger struct{}

func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

func testLinkConfig() config.Link {
	return config.Link{
		CodePrefix:      "BN",
		CodeLength:      6,
		CodeTTL:         10 * time.Minute,
		MaxCodeAttempts: 5,
		LookupTimeout:   time.Second,
		ChannelID:       2,
		ChatTable:       "chat_message_state",
		PlayerTable:     "player_username_state",
	}
}

type fakeLookup struct {
	query    string
	onResult func(row json.RawMessage)

	mu        sync.Mutex
	cancelled bool
}

func (l *fakeLookup) resolve(row string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancelled {
		return false
	}
	l.onResult(json.RawMessage(row))
	return true
}

func (l *fakeLookup) isCancelled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancelled
}

// fakeFeed records subscriptions and lets tests push rows by hand.
type fakeFeed struct {
	mu      sync.Mutex
	query   string
	handler func(rows []json.RawMessage, since time.Time)
	opened  chan *fakeLookup
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{opened: make(chan *fakeLookup, 16)}
}

func (f *fakeFeed) Subscribe(query string, handler func(rows []json.RawMessage, since time.Time)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = query
	f.handler = handler
}

func (f *fakeFeed) SubscribeOnce(query string, _ time.Duration, onResult func(row json.RawMessage)) func() {
	l := &fakeLookup{query: query, onResult: onResult}
	f.opened <- l
	return func() {
		l.mu.Lock()
		l.cancelled = true
		l.mu.Unlock()
	}
}

func (f *fakeFeed) nextLookup(t *testing.T) *fakeLookup {
	t.Helper()
	select {
	case l := <-f.opened:
		return l
	case <-time.After(2 * time.Second):
		t.Fatal("no lookup was opened")
		return nil
	}
}

type notification struct {
	requesterID string
	message     string
}

type fakeNotifier struct {
	sent chan notification
	err  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan notification, 16)}
}

func (n *fakeNotifier) Notify(_ context.Context, requesterID, message string) error {
	n.sent <- notification{requesterID: requesterID, message: message}
	return n.err
}

func (n *fakeNotifier) next(t *testing.T) notification {
	t.Helper()
	select {
	case msg := <-n.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no notification was sent")
		return notification{}
	}
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (a *fakeAlerter) Alert(message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, message)
	return nil
}

// sequenceCodes hands out codes in order and fails once exhausted.
type sequenceCodes struct {
	mu    sync.Mutex
	codes []string
}

func (s *sequenceCodes) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return "", errors.New("no more codes")
	}
	code := s.codes[0]
	s.codes = s.codes[1:]
	return code, nil
}

type linkFixture struct {
	repos      *repository.Repository
	feed       *fakeFeed
	notifier   *fakeNotifier
	lookups    *lookupRegistry
	finalizer  *Finalizer
	correlator *Correlator
}

func newLinkFixture() *linkFixture {
	f := &linkFixture{
		repos:    repository.NewMemoryRepository(),
		feed:     newFakeFeed(),
		notifier: newFakeNotifier(),
		lookups:  newLookupRegistry(),
	}
	f.finalizer = NewFinalizer(f.repos.PendingLink, f.repos.LinkedIdentity, f.notifier, f.lookups, nopLogger{})
	f.correlator = NewCorrelator(f.repos.PendingLink, f.feed, f.finalizer, f.lookups, testLinkConfig(), nopLogger{})
	return f
}
