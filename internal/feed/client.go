package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

type Config struct {
	URL              string        `env:"URL"`
	Token            string        `env:"TOKEN"`
	ReconnectMin     time.Duration `env:"RECONNECT_MIN" envDefault:"1s"`
	ReconnectMax     time.Duration `env:"RECONNECT_MAX" envDefault:"30s"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT" envDefault:"10s"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

type subscription struct {
	id    uint32
	query string

	// exactly one of rows / once is set
	rows  func(rows []json.RawMessage, since time.Time)
	once  func(row json.RawMessage)
	timer *time.Timer
}

// Client keeps one websocket connection to the game database and multiplexes
// query subscriptions over it. Persistent subscriptions are re-sent after
// every reconnect; one-shot subscriptions live until their first row, their
// timeout, or cancellation.
//
// All writes to the connection happen with mu held.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger Logger
	now    func() time.Time

	mu           sync.Mutex
	conn         *websocket.Conn
	subs         map[uint32]*subscription
	nextID       uint32
	subscribedAt time.Time
	awaiting     map[uint32]struct{}
	cancel       context.CancelFunc

	state atomic.Int32
}

func NewClient(cfg Config, logger Logger) *Client {
	return &Client{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		logger: logger,
		now:    time.Now,
		subs:   make(map[uint32]*subscription),
	}
}

func (c *Client) Init() error {
	if c.cfg.URL == "" {
		return errors.New("feed url is not configured")
	}
	return nil
}

// Run connects and keeps the connection alive until ctx is done or Stop is called.
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()
	defer c.setState(Disconnected)

	backoff := c.cfg.ReconnectMin
	for {
		c.setState(Subscribing)
		connected, err := c.serve(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = c.cfg.ReconnectMin
		}

		c.setState(Reconnecting)
		c.logger.Warn("Feed connection lost, reconnecting in %s: %v", backoff, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff, c.cfg.ReconnectMax)
	}
}

func (c *Client) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Client) State() State {
	return State(c.state.Load())
}

// SubscribedAt is the start of the current subscription's eligibility window.
func (c *Client) SubscribedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribedAt
}

// OpenLookups reports how many one-shot subscriptions are still registered.
func (c *Client) OpenLookups() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, sub := range c.subs {
		if sub.once != nil {
			n++
		}
	}
	return n
}

// Subscribe registers a persistent subscription. handler runs on the read
// goroutine, in delivery order, with the start time of the live connection.
func (c *Client) Subscribe(query string, handler func(rows []json.RawMessage, since time.Time)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &subscription{id: c.allocIDLocked(), query: query, rows: handler}
	c.subs[sub.id] = sub
	c.sendSubscribeLocked(sub)
}

// SubscribeOnce delivers the first row matching query to onResult and then
// unsubscribes. The subscription removes itself after timeout. The returned
// cancel func is safe to call any number of times.
func (c *Client) SubscribeOnce(query string, timeout time.Duration, onResult func(row json.RawMessage)) func() {
	c.mu.Lock()
	sub := &subscription{id: c.allocIDLocked(), query: query, once: onResult}
	c.subs[sub.id] = sub
	sub.timer = time.AfterFunc(timeout, func() {
		c.logger.Debug("Feed lookup %d timed out after %s", sub.id, timeout)
		c.remove(sub.id)
	})
	c.sendSubscribeLocked(sub)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.remove(sub.id) })
	}
}

func (c *Client) serve(ctx context.Context) (bool, error) {
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return false, fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := c.attach(conn); err != nil {
		c.detach()
		return true, err
	}
	defer c.detach()

	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return true, fmt.Errorf("read feed: %w", err)
		}
		c.dispatch(msg)
	}
}

func (c *Client) attach(conn *websocket.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn = conn
	c.subscribedAt = c.now()
	c.awaiting = make(map[uint32]struct{})

	for _, sub := range c.subs {
		if sub.rows != nil {
			c.awaiting[sub.id] = struct{}{}
		}
		if err := c.writeLocked(clientMessage{Type: msgSubscribe, QueryID: sub.id, Query: sub.query}); err != nil {
			return fmt.Errorf("subscribe %d: %w", sub.id, err)
		}
	}
	if len(c.awaiting) == 0 {
		c.markSubscribedLocked()
	}
	return nil
}

func (c *Client) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = nil
	c.awaiting = nil
}

func (c *Client) dispatch(msg serverMessage) {
	var rows []json.RawMessage
	switch msg.Type {
	case msgSubscribeApplied:
		rows = msg.Rows
		c.markApplied(msg.QueryID)
	case msgTransactionUpdate:
		rows = msg.Inserts
	case msgSubscriptionError:
		c.logger.Error("Feed subscription %d rejected: %s", msg.QueryID, msg.Error)
		c.removeOnce(msg.QueryID)
		return
	case msgUnsubscribeApplied:
		return
	default:
		c.logger.Debug("Ignoring feed message of type %q", msg.Type)
		return
	}

	c.mu.Lock()
	sub, ok := c.subs[msg.QueryID]
	since := c.subscribedAt
	if ok && sub.once != nil {
		if len(rows) == 0 {
			c.mu.Unlock()
			return
		}
		c.removeLocked(sub)
	}
	c.mu.Unlock()

	switch {
	case !ok:
	case sub.once != nil:
		sub.once(rows[0])
	case len(rows) > 0:
		sub.rows(rows, since)
	}
}

func (c *Client) markApplied(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.awaiting[id]; !ok {
		return
	}
	delete(c.awaiting, id)
	if len(c.awaiting) == 0 {
		c.markSubscribedLocked()
	}
}

func (c *Client) markSubscribedLocked() {
	c.setState(Subscribed)
	c.logger.Info("Feed subscribed, accepting events since %s", c.subscribedAt.Format(time.RFC3339Nano))
}

func (c *Client) remove(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.subs[id]; ok {
		c.removeLocked(sub)
	}
}

func (c *Client) removeOnce(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.subs[id]; ok && sub.once != nil {
		c.removeLocked(sub)
	}
}

func (c *Client) removeLocked(sub *subscription) {
	delete(c.subs, sub.id)
	if sub.timer != nil {
		sub.timer.Stop()
	}
	if c.conn == nil {
		return
	}
	if err := c.writeLocked(clientMessage{Type: msgUnsubscribe, QueryID: sub.id}); err != nil {
		c.logger.Debug("Failed to unsubscribe %d: %v", sub.id, err)
	}
}

func (c *Client) sendSubscribeLocked(sub *subscription) {
	if c.conn == nil {
		return
	}
	if err := c.writeLocked(clientMessage{Type: msgSubscribe, QueryID: sub.id, Query: sub.query}); err != nil {
		// the read loop sees the broken connection and resubscribes everything
		c.logger.Debug("Failed to subscribe %d: %v", sub.id, err)
	}
}

func (c *Client) writeLocked(msg clientMessage) error {
	if c.cfg.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) allocIDLocked() uint32 {
	c.nextID++
	return c.nextID
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max || next <= 0 {
		return max
	}
	return next
}
