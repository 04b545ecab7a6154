// Package qrflow drives the two QR identification flows: a customer logging
// in by scanning a code and a customer presenting their loyalty card. Each
// flow generates a session, displays the QR payload, listens for realtime
// confirmation (with an optional REST polling fallback) and walks a small
// state machine until the session ends.
package qrflow

import (
	"context"
	"sync"
	"time"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/realtime"
)

const (
	defaultDeviceName     = "POS Terminal"
	defaultRequestTimeout = 10 * time.Second
	defaultSessionTTL     = 5 * time.Minute
)

// TokenSource mints channel tokens for a session and builds the renewal
// closure handed to the realtime connection.
type TokenSource interface {
	Mint(ctx context.Context, sessionID string) (*model.ChannelToken, error)
	RenewalFunc(sessionID string) realtime.RenewalFunc
}

// LoginAPI is the REST surface the login flow needs.
type LoginAPI interface {
	GenerateQRLogin(ctx context.Context, deviceName string, shopID int) (*model.QRLoginSession, error)
	PollQRLogin(ctx context.Context, sessionID string) (*model.QRLoginPoll, error)
}

// CardAPI is the REST surface the card scan flow needs.
type CardAPI interface {
	GenerateQRCard(ctx context.Context, deviceName string, shopID int) (*model.QRCardSession, error)
	PollQRCard(ctx context.Context, sessionID string) (*model.QRCardPoll, error)
}

// Options tune a flow. The zero value is usable.
type Options struct {
	// DeviceName is shown to the customer on the scanning device.
	DeviceName string

	// ShopID scopes the session to one shop. Zero means the key's
	// default shop.
	ShopID int

	// AutoRegenerate starts a fresh session after the current one
	// expired or was cancelled remotely. The expiry or cancellation
	// callback still fires, once, before the new session is generated.
	AutoRegenerate bool

	// PollInterval enables the REST polling fallback. Zero disables
	// polling and the flow relies on realtime messages alone.
	PollInterval time.Duration

	// RequestTimeout bounds each REST call made by the flow.
	RequestTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.DeviceName == "" {
		o.DeviceName = defaultDeviceName
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
	return o
}

// engine holds the state shared by both flows. All fields are guarded by
// mu; callbacks are always invoked with the lock released.
type engine struct {
	mu     sync.Mutex
	rt     *realtime.Manager
	tokens TokenSource
	opts   Options

	status    Status
	sessionID string
	gen       int  // generation counter, invalidates stale generate goroutines
	done      bool // terminal callback fired for the current session
	closed    bool // Cancel was called, the flow is finished
	sub       *realtime.Subscription
	stopCh    chan struct{}
}

// Status returns the current flow status.
func (e *engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// SessionID returns the identifier of the current session, or an empty
// string while a session is being generated.
func (e *engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// Cancel tears the flow down without invoking any callback. The flow
// cannot be restarted afterwards.
func (e *engine) Cancel() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.done = true
	e.status = StatusCancelled
	sub, stop := e.detachLocked()
	e.mu.Unlock()

	e.release(sub, stop)
}

// detachLocked hands the session resources to the caller and clears them.
// The caller holds the lock and releases the resources after unlocking.
func (e *engine) detachLocked() (*realtime.Subscription, chan struct{}) {
	sub, stop := e.sub, e.stopCh
	e.sub = nil
	e.stopCh = nil
	return sub, stop
}

// release stops the timers, detaches the channel and closes the realtime
// connection. Must not be called while holding the lock: closing the
// connection makes the transport surface errors that re-enter the engine.
func (e *engine) release(sub *realtime.Subscription, stop chan struct{}) {
	if stop != nil {
		close(stop)
	}
	if sub != nil {
		sub.Unsubscribe()
	}
	e.rt.Disconnect()
}

func (e *engine) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.opts.RequestTimeout)
}

func sessionTTL(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return defaultSessionTTL
	}
	ttl := time.Until(expiresAt)
	if ttl < 0 {
		ttl = 0
	}
	return ttl
}
