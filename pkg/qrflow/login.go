package qrflow

import (
	"encoding/json"
	"time"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/realtime"
	log "github.com/sirupsen/logrus"
)

// AuthResult carries the credentials delivered once a login session was
// confirmed on the customer's device.
type AuthResult struct {
	Token        string
	RefreshToken string
	ExpiresIn    int
	User         *model.User
}

// LoginCallbacks are invoked as the login session progresses. Terminal
// callbacks fire at most once per session. Nil callbacks are skipped.
type LoginCallbacks struct {
	// OnGenerated delivers the QR payload to display.
	OnGenerated func(sess model.QRLoginSession)

	// OnScanned fires when the customer scanned the code but has not
	// confirmed yet.
	OnScanned func()

	// OnAuthenticated delivers the session credentials.
	OnAuthenticated func(res AuthResult)

	// OnCancelled fires when the session was cancelled on the customer's
	// device or by the backend.
	OnCancelled func()

	// OnExpired fires when the session timed out without confirmation.
	OnExpired func()

	// OnError fires on generation, connection or protocol failures.
	OnError func(err error)
}

// LoginFlow runs one QR login session at a time: pending, scanned,
// then authenticated, expired or cancelled.
type LoginFlow struct {
	engine
	api     LoginAPI
	cb      LoginCallbacks
	session *model.QRLoginSession
}

// NewLoginFlow wires a login flow. The flow owns the realtime manager and
// closes its connection whenever the session ends.
func NewLoginFlow(api LoginAPI, tokens TokenSource, rt *realtime.Manager, opts Options, cb LoginCallbacks) *LoginFlow {
	f := &LoginFlow{api: api, cb: cb}
	f.rt = rt
	f.tokens = tokens
	f.opts = opts.withDefaults()
	rt.NotifyError(f.handleConnectionError)
	return f
}

// Start generates the first session in the background. Progress is
// reported through the callbacks.
func (f *LoginFlow) Start() {
	go f.generate()
}

// Regenerate discards the current session and generates a fresh one. No
// callback fires for the discarded session.
func (f *LoginFlow) Regenerate() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.done = true
	sub, stop := f.detachLocked()
	f.mu.Unlock()

	f.release(sub, stop)
	go f.generate()
}

// Session returns a copy of the current session, or nil while generating.
func (f *LoginFlow) Session() *model.QRLoginSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil
	}
	sess := *f.session
	return &sess
}

func (f *LoginFlow) generate() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.gen++
	myGen := f.gen
	f.status = StatusGenerating
	f.sessionID = ""
	f.session = nil
	f.done = false
	f.mu.Unlock()

	ctx, cancel := f.requestContext()
	defer cancel()

	sess, err := f.api.GenerateQRLogin(ctx, f.opts.DeviceName, f.opts.ShopID)
	if err != nil {
		f.fail("", err)
		return
	}

	tok, err := f.tokens.Mint(ctx, sess.SessionID)
	if err != nil {
		f.fail("", err)
		return
	}

	stop := make(chan struct{})

	f.mu.Lock()
	if f.closed || f.gen != myGen {
		f.mu.Unlock()
		return
	}
	f.sessionID = sess.SessionID
	f.session = sess
	f.stopCh = stop
	f.mu.Unlock()

	if f.cb.OnGenerated != nil {
		f.cb.OnGenerated(*sess)
	}

	if err := f.rt.Connect(tok.Token, f.tokens.RenewalFunc(sess.SessionID)); err != nil {
		f.fail(sess.SessionID, err)
		return
	}

	channel := tok.Channel
	if channel == "" {
		channel = LoginChannel(sess.SessionID)
	}

	sub, err := f.rt.Subscribe(channel, f.messageHandler(sess.SessionID))
	if err != nil {
		f.fail(sess.SessionID, err)
		return
	}

	f.mu.Lock()
	if f.closed || f.done || f.gen != myGen {
		f.mu.Unlock()
		sub.Unsubscribe()
		f.rt.Disconnect()
		return
	}
	f.sub = sub
	f.status = StatusPending
	f.mu.Unlock()

	go f.countdown(sess.SessionID, stop, sess.ExpiresAt)
	if f.opts.PollInterval > 0 {
		go f.pollLoop(sess.SessionID, stop)
	}
}

// messageHandler filters realtime messages down to status updates of the
// session it was created for. Updates carrying a different session id are
// stale and dropped.
func (f *LoginFlow) messageHandler(sessionID string) realtime.MessageFunc {
	return func(msg realtime.Message) {
		if msg.Type != realtime.MessageTypeStatusUpdate {
			return
		}

		data := model.QRLoginStatusData{}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			log.Warnf("qrflow: dropping malformed status update: %s", err)
			return
		}
		if data.SessionID != "" && data.SessionID != sessionID {
			return
		}

		f.apply(sessionID, data.Status, &AuthResult{
			Token:        data.Token,
			RefreshToken: data.RefreshToken,
			ExpiresIn:    data.ExpiresIn,
			User:         data.User,
		})
	}
}

// apply advances the state machine. Events for a session other than the
// current one, or arriving after a terminal transition, are ignored.
func (f *LoginFlow) apply(sessionID, status string, auth *AuthResult) {
	var fire func()
	var teardown, regen bool

	f.mu.Lock()
	if f.closed || f.done || sessionID != f.sessionID {
		f.mu.Unlock()
		return
	}

	var sub *realtime.Subscription
	var stop chan struct{}

	switch status {
	case "scanned":
		if f.status == StatusPending {
			f.status = StatusScanned
			fire = f.cb.OnScanned
		}
	case "authenticated", "confirmed":
		f.status = StatusAuthenticated
		f.done = true
		teardown = true
		sub, stop = f.detachLocked()
		if f.cb.OnAuthenticated != nil {
			res := AuthResult{}
			if auth != nil {
				res = *auth
			}
			fire = func() { f.cb.OnAuthenticated(res) }
		}
	case "cancelled", "failed":
		f.status = StatusCancelled
		f.done = true
		teardown = true
		sub, stop = f.detachLocked()
		fire = f.cb.OnCancelled
		regen = f.opts.AutoRegenerate
	case "expired":
		f.status = StatusExpired
		f.done = true
		teardown = true
		sub, stop = f.detachLocked()
		fire = f.cb.OnExpired
		regen = f.opts.AutoRegenerate
	}
	f.mu.Unlock()

	if teardown {
		f.release(sub, stop)
	}
	if fire != nil {
		fire()
	}
	if regen {
		go f.generate()
	}
}

func (f *LoginFlow) fail(sessionID string, err error) {
	f.mu.Lock()
	if f.closed || f.done || (sessionID != "" && sessionID != f.sessionID) {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.status = StatusError
	sub, stop := f.detachLocked()
	f.mu.Unlock()

	f.release(sub, stop)
	log.Errorf("qrflow: login session failed: %s", err)
	if f.cb.OnError != nil {
		f.cb.OnError(err)
	}
}

func (f *LoginFlow) handleConnectionError(err error) {
	f.fail(f.SessionID(), err)
}

// countdown expires the session when its server-side lifetime runs out and
// no realtime expiry was received first.
func (f *LoginFlow) countdown(sessionID string, stop chan struct{}, expiresAt time.Time) {
	select {
	case <-stop:
	case <-time.After(sessionTTL(expiresAt)):
		f.apply(sessionID, "expired", nil)
	}
}

// pollLoop is the fallback for deployments where the realtime gateway is
// unreachable. Poll errors are logged and retried on the next tick.
func (f *LoginFlow) pollLoop(sessionID string, stop chan struct{}) {
	ticker := time.NewTicker(f.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := f.requestContext()
			poll, err := f.api.PollQRLogin(ctx, sessionID)
			cancel()
			if err != nil {
				log.Debugf("qrflow: login poll failed: %s", err)
				continue
			}

			f.apply(sessionID, poll.Status, &AuthResult{
				Token:        poll.Token,
				RefreshToken: poll.RefreshToken,
				ExpiresIn:    poll.ExpiresIn,
				User:         poll.User,
			})
		}
	}
}
