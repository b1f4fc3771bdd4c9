package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Listener subscribes to the backend's broadcast endpoint over a websocket
// and republishes every signal it receives on a Broadcaster.
type Listener struct {
	url         string
	broadcaster *Broadcaster
	dialer      *websocket.Dialer
	header      http.Header
	retryWait   time.Duration
}

// ListenerOption customizes a Listener.
type ListenerOption func(*Listener)

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) ListenerOption {
	return func(l *Listener) {
		if d != nil {
			l.dialer = d
		}
	}
}

// WithHeader adds handshake headers, typically an Authorization bearer.
func WithHeader(h http.Header) ListenerOption {
	return func(l *Listener) {
		l.header = h
	}
}

// WithRetryWait sets the pause between reconnect attempts.
func WithRetryWait(d time.Duration) ListenerOption {
	return func(l *Listener) {
		if d > 0 {
			l.retryWait = d
		}
	}
}

// NewListener constructs a listener for the given ws:// or wss:// URL.
func NewListener(url string, b *Broadcaster, opts ...ListenerOption) *Listener {
	l := &Listener{
		url:         url,
		broadcaster: b,
		dialer:      websocket.DefaultDialer,
		retryWait:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run connects and pumps signals until the context is cancelled. Dropped
// connections are redialed after the retry wait; Run only returns the
// context's error.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.pump(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryWait):
		}
	}
}

func (l *Listener) pump(ctx context.Context) error {
	conn, resp, err := l.dialer.DialContext(ctx, l.url, l.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("notify: dial %s: status %d: %w", l.url, resp.StatusCode, err)
		}
		return fmt.Errorf("notify: dial %s: %w", l.url, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("notify: read: %w", err)
		}

		var sig Signal
		if err := json.Unmarshal(raw, &sig); err != nil || sig.FormID == "" {
			// Unknown frame shapes are skipped, not fatal.
			continue
		}
		l.broadcaster.Publish(sig)
	}
}

// ErrNoBroadcaster reports a listener constructed without a broadcaster.
var ErrNoBroadcaster = errors.New("notify: broadcaster is required")

// Validate checks the listener is runnable.
func (l *Listener) Validate() error {
	if l.broadcaster == nil {
		return ErrNoBroadcaster
	}
	if l.url == "" {
		return errors.New("notify: url is required")
	}
	return nil
}
