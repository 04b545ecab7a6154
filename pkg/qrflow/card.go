package qrflow

import (
	"encoding/json"
	"time"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/realtime"
	log "github.com/sirupsen/logrus"
)

// CardCallbacks are invoked as the card scan session progresses. Terminal
// callbacks fire at most once per session. Nil callbacks are skipped.
type CardCallbacks struct {
	// OnGenerated delivers the QR payload to display.
	OnGenerated func(sess model.QRCardSession)

	// OnCardIdentified delivers the identified card with its balance and
	// the redemption rules that apply at this shop.
	OnCardIdentified func(card model.CardScanData)

	// OnCancelled fires when the session was cancelled by the backend.
	OnCancelled func()

	// OnExpired fires when the session timed out without a scan.
	OnExpired func()

	// OnError fires on generation, connection or protocol failures.
	OnError func(err error)
}

// CardFlow runs one card scan session at a time. Unlike the login flow
// there is no intermediate scanned state: the scan itself identifies the
// card and completes the session.
type CardFlow struct {
	engine
	api     CardAPI
	cb      CardCallbacks
	session *model.QRCardSession
}

// NewCardFlow wires a card scan flow. The flow owns the realtime manager
// and closes its connection whenever the session ends.
func NewCardFlow(api CardAPI, tokens TokenSource, rt *realtime.Manager, opts Options, cb CardCallbacks) *CardFlow {
	f := &CardFlow{api: api, cb: cb}
	f.rt = rt
	f.tokens = tokens
	f.opts = opts.withDefaults()
	rt.NotifyError(f.handleConnectionError)
	return f
}

// Start generates the first session in the background. Progress is
// reported through the callbacks.
func (f *CardFlow) Start() {
	go f.generate()
}

// Regenerate discards the current session and generates a fresh one. No
// callback fires for the discarded session.
func (f *CardFlow) Regenerate() {
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
func (f *CardFlow) Session() *model.QRCardSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil
	}
	sess := *f.session
	return &sess
}

func (f *CardFlow) generate() {
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

	sess, err := f.api.GenerateQRCard(ctx, f.opts.DeviceName, f.opts.ShopID)
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

	// The generate endpoint names the channel for card sessions; the
	// token carries it as well. Either one wins over the convention.
	channel := sess.Channel
	if channel == "" {
		channel = tok.Channel
	}
	if channel == "" {
		channel = CardChannel(sess.SessionID)
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

// messageHandler accepts card_identified payloads and plain status updates
// for expiry and cancellation. Messages carrying a different session id
// are stale and dropped.
func (f *CardFlow) messageHandler(sessionID string) realtime.MessageFunc {
	return func(msg realtime.Message) {
		switch msg.Type {
		case realtime.MessageTypeCardIdentified:
			data := model.CardIdentifiedData{}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				log.Warnf("qrflow: dropping malformed card_identified: %s", err)
				return
			}
			if data.SessionID != "" && data.SessionID != sessionID {
				return
			}
			card := data.CardData
			f.apply(sessionID, "authenticated", &card)

		case realtime.MessageTypeStatusUpdate:
			data := struct {
				SessionID string `json:"session_id"`
				Status    string `json:"status"`
			}{}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				log.Warnf("qrflow: dropping malformed status update: %s", err)
				return
			}
			if data.SessionID != "" && data.SessionID != sessionID {
				return
			}
			f.apply(sessionID, data.Status, nil)
		}
	}
}

// apply advances the state machine. A session completes on the first
// card_identified event; card data is required for the terminal success
// transition.
func (f *CardFlow) apply(sessionID, status string, card *model.CardScanData) {
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
	case "authenticated", "completed", "identified":
		if card == nil {
			break
		}
		f.status = StatusAuthenticated
		f.done = true
		teardown = true
		sub, stop = f.detachLocked()
		if f.cb.OnCardIdentified != nil {
			data := *card
			sanitizeRedemption(&data)
			fire = func() { f.cb.OnCardIdentified(data) }
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

func (f *CardFlow) fail(sessionID string, err error) {
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
	log.Errorf("qrflow: card session failed: %s", err)
	if f.cb.OnError != nil {
		f.cb.OnError(err)
	}
}

func (f *CardFlow) handleConnectionError(err error) {
	f.fail(f.SessionID(), err)
}

func (f *CardFlow) countdown(sessionID string, stop chan struct{}, expiresAt time.Time) {
	select {
	case <-stop:
	case <-time.After(sessionTTL(expiresAt)):
		f.apply(sessionID, "expired", nil)
	}
}

func (f *CardFlow) pollLoop(sessionID string, stop chan struct{}) {
	ticker := time.NewTicker(f.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := f.requestContext()
			poll, err := f.api.PollQRCard(ctx, sessionID)
			cancel()
			if err != nil {
				log.Debugf("qrflow: card poll failed: %s", err)
				continue
			}

			f.apply(sessionID, poll.Status, poll.CardData)
		}
	}
}

// sanitizeRedemption drops redemption rules a terminal could not apply
// safely: non-positive rates or a minimum above the maximum. The card
// itself stays usable, only the discount option disappears.
func sanitizeRedemption(card *model.CardScanData) {
	rules := card.Redemption
	if rules == nil || rules.RedemptionDisabled() {
		return
	}

	pointsPerCurrency, currencyAmount := rules.RedemptionRates()
	invalidLimits := rules.MaxPointsPerRedemption > 0 &&
		rules.MinPointsForRedemption > rules.MaxPointsPerRedemption

	if pointsPerCurrency <= 0 || currencyAmount <= 0 || invalidLimits {
		log.Warnf("qrflow: dropping invalid redemption rules for card '%s'", card.CardNumber)
		card.Redemption = nil
	}
}
