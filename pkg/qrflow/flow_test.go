package qrflow_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/qrflow"
	"github.com/Loyalty-lt/sdk-go/pkg/realtime"
	"github.com/pkg/errors"
)

const testTimeout = 2 * time.Second

// fakeTransport lets tests push realtime messages into a flow.
type fakeTransport struct {
	mu       sync.Mutex
	opts     realtime.ConnectOptions
	connects int
	closes   int
	channels map[string]int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{channels: make(map[string]int)}
}

func (t *fakeTransport) Connect(opts realtime.ConnectOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opts = opts
	t.connects++
	return nil
}

func (t *fakeTransport) Subscribe(channel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.channels[channel]++
	return nil
}

func (t *fakeTransport) Unsubscribe(channel string) error {
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	return nil
}

func (t *fakeTransport) subscribedTo(channel string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.channels[channel] > 0
}

func (t *fakeTransport) closeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closes
}

func (t *fakeTransport) deliver(channel, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	t.mu.Lock()
	onMessage := t.opts.OnMessage
	t.mu.Unlock()
	onMessage(realtime.Message{Type: msgType, Channel: channel, Data: data})
}

type fakeLoginAPI struct {
	mu        sync.Mutex
	generated int
	ttl       time.Duration
	genErr    error
	pollFn    func(sessionID string) (*model.QRLoginPoll, error)
}

func (a *fakeLoginAPI) GenerateQRLogin(ctx context.Context, deviceName string, shopID int) (*model.QRLoginSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.genErr != nil {
		return nil, a.genErr
	}
	a.generated++
	ttl := a.ttl
	if ttl == 0 {
		ttl = time.Hour
	}
	id := fmt.Sprintf("login-%d", a.generated)
	return &model.QRLoginSession{
		SessionID: id,
		QRCode:    "loyalty://login/" + id,
		Status:    "pending",
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (a *fakeLoginAPI) PollQRLogin(ctx context.Context, sessionID string) (*model.QRLoginPoll, error) {
	a.mu.Lock()
	pollFn := a.pollFn
	a.mu.Unlock()
	if pollFn == nil {
		return &model.QRLoginPoll{Status: "pending"}, nil
	}
	return pollFn(sessionID)
}

func (a *fakeLoginAPI) generateCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generated
}

type fakeCardAPI struct {
	mu        sync.Mutex
	generated int
	pollFn    func(sessionID string) (*model.QRCardPoll, error)
}

func (a *fakeCardAPI) GenerateQRCard(ctx context.Context, deviceName string, shopID int) (*model.QRCardSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generated++
	id := fmt.Sprintf("card-%d", a.generated)
	return &model.QRCardSession{
		SessionID: id,
		QRCode:    "loyalty://card/" + id,
		Channel:   "qr-card:" + id,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (a *fakeCardAPI) PollQRCard(ctx context.Context, sessionID string) (*model.QRCardPoll, error) {
	a.mu.Lock()
	pollFn := a.pollFn
	a.mu.Unlock()
	if pollFn == nil {
		return &model.QRCardPoll{SessionID: sessionID, Status: "pending"}, nil
	}
	return pollFn(sessionID)
}

type fakeTokens struct{}

func (fakeTokens) Mint(ctx context.Context, sessionID string) (*model.ChannelToken, error) {
	return &model.ChannelToken{Token: "tok-" + sessionID}, nil
}

func (fakeTokens) RenewalFunc(sessionID string) realtime.RenewalFunc {
	return func() (string, error) {
		return "tok2-" + sessionID, nil
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLoginFlowAuthenticates(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeLoginAPI{}

	generated := make(chan model.QRLoginSession, 2)
	scanned := make(chan struct{}, 2)
	authed := make(chan qrflow.AuthResult, 2)

	flow := qrflow.NewLoginFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{}, qrflow.LoginCallbacks{
		OnGenerated:     func(sess model.QRLoginSession) { generated <- sess },
		OnScanned:       func() { scanned <- struct{}{} },
		OnAuthenticated: func(res qrflow.AuthResult) { authed <- res },
		OnError:         func(err error) { t.Errorf("unexpected error: %s", err) },
	})
	flow.Start()

	sess := <-generated
	if sess.QRCode == "" {
		t.Error("generated session without QR payload")
	}
	waitUntil(t, "channel subscription", func() bool { return tr.subscribedTo("qr-login:login-1") })

	tr.deliver("qr-login:login-1", realtime.MessageTypeStatusUpdate, model.QRLoginStatusData{
		SessionID: "login-1",
		Status:    "scanned",
	})
	select {
	case <-scanned:
	case <-time.After(testTimeout):
		t.Fatal("scan was not reported")
	}
	if got := flow.Status(); got != qrflow.StatusScanned {
		t.Errorf("status = %s, want scanned", got)
	}

	tr.deliver("qr-login:login-1", realtime.MessageTypeStatusUpdate, model.QRLoginStatusData{
		SessionID: "login-1",
		Status:    "authenticated",
		Token:     "access-token",
		ExpiresIn: 3600,
		User:      &model.User{ID: 7, Name: "Jonas"},
	})

	var res qrflow.AuthResult
	select {
	case res = <-authed:
	case <-time.After(testTimeout):
		t.Fatal("authentication was not reported")
	}
	if res.Token != "access-token" || res.ExpiresIn != 3600 {
		t.Errorf("unexpected auth result: %+v", res)
	}
	if res.User == nil || res.User.ID != 7 {
		t.Errorf("unexpected user: %+v", res.User)
	}
	if got := flow.Status(); got != qrflow.StatusAuthenticated {
		t.Errorf("status = %s, want authenticated", got)
	}

	// Completion closes the realtime connection.
	waitUntil(t, "connection close", func() bool { return tr.closeCount() == 1 })

	// A duplicate confirmation must not fire the callback again.
	tr.deliver("qr-login:login-1", realtime.MessageTypeStatusUpdate, model.QRLoginStatusData{
		SessionID: "login-1",
		Status:    "authenticated",
	})
	select {
	case <-authed:
		t.Error("authenticated callback fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoginFlowExpiresAndRegenerates(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeLoginAPI{ttl: 50 * time.Millisecond}

	generated := make(chan model.QRLoginSession, 4)
	expired := make(chan struct{}, 4)

	flow := qrflow.NewLoginFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{
		AutoRegenerate: true,
	}, qrflow.LoginCallbacks{
		OnGenerated: func(sess model.QRLoginSession) { generated <- sess },
		OnExpired:   func() { expired <- struct{}{} },
	})
	flow.Start()
	defer flow.Cancel()

	first := <-generated
	select {
	case <-expired:
	case <-time.After(testTimeout):
		t.Fatal("session did not expire")
	}

	second := <-generated
	if second.SessionID == first.SessionID {
		t.Error("regenerated session reuses the expired session id")
	}
	waitUntil(t, "second generation", func() bool { return api.generateCount() >= 2 })
}

func TestLoginFlowIgnoresStaleSession(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeLoginAPI{}

	authed := make(chan qrflow.AuthResult, 1)

	flow := qrflow.NewLoginFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{}, qrflow.LoginCallbacks{
		OnAuthenticated: func(res qrflow.AuthResult) { authed <- res },
	})
	flow.Start()
	waitUntil(t, "first subscription", func() bool { return tr.subscribedTo("qr-login:login-1") })

	flow.Regenerate()
	waitUntil(t, "second subscription", func() bool { return tr.subscribedTo("qr-login:login-2") })

	// A buffered update of the discarded session arrives on the new
	// channel. It must not complete the current session.
	tr.deliver("qr-login:login-2", realtime.MessageTypeStatusUpdate, model.QRLoginStatusData{
		SessionID: "login-1",
		Status:    "authenticated",
		Token:     "stale-token",
	})

	select {
	case <-authed:
		t.Fatal("stale session update was applied")
	case <-time.After(50 * time.Millisecond):
	}
	if got := flow.Status(); got != qrflow.StatusPending {
		t.Errorf("status = %s, want pending", got)
	}
}

func TestLoginFlowRemoteCancellationFiresOnce(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeLoginAPI{}

	cancelled := make(chan struct{}, 2)

	flow := qrflow.NewLoginFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{}, qrflow.LoginCallbacks{
		OnCancelled: func() { cancelled <- struct{}{} },
	})
	flow.Start()
	waitUntil(t, "subscription", func() bool { return tr.subscribedTo("qr-login:login-1") })

	update := model.QRLoginStatusData{SessionID: "login-1", Status: "cancelled"}
	tr.deliver("qr-login:login-1", realtime.MessageTypeStatusUpdate, update)
	tr.deliver("qr-login:login-1", realtime.MessageTypeStatusUpdate, update)

	select {
	case <-cancelled:
	case <-time.After(testTimeout):
		t.Fatal("cancellation was not reported")
	}
	select {
	case <-cancelled:
		t.Error("cancellation callback fired twice")
	case <-time.After(50 * time.Millisecond):
	}
	if got := flow.Status(); got != qrflow.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got)
	}
}

func TestLoginFlowCancelIsSilent(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeLoginAPI{}

	cancelled := make(chan struct{}, 1)
	expired := make(chan struct{}, 1)

	flow := qrflow.NewLoginFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{}, qrflow.LoginCallbacks{
		OnCancelled: func() { cancelled <- struct{}{} },
		OnExpired:   func() { expired <- struct{}{} },
	})
	flow.Start()
	waitUntil(t, "subscription", func() bool { return tr.subscribedTo("qr-login:login-1") })

	flow.Cancel()

	if got := flow.Status(); got != qrflow.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got)
	}
	waitUntil(t, "connection close", func() bool { return tr.closeCount() == 1 })

	select {
	case <-cancelled:
		t.Error("explicit cancel invoked the cancellation callback")
	case <-expired:
		t.Error("explicit cancel invoked the expiry callback")
	case <-time.After(50 * time.Millisecond):
	}

	// Cancelled flows stay down.
	flow.Regenerate()
	time.Sleep(20 * time.Millisecond)
	if got := api.generateCount(); got != 1 {
		t.Errorf("cancelled flow generated %d sessions, want 1", got)
	}
}

func TestLoginFlowPollFallback(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeLoginAPI{}

	var polls int
	api.pollFn = func(sessionID string) (*model.QRLoginPoll, error) {
		polls++
		if polls < 3 {
			return &model.QRLoginPoll{Status: "pending"}, nil
		}
		return &model.QRLoginPoll{Status: "confirmed", Token: "poll-token"}, nil
	}

	authed := make(chan qrflow.AuthResult, 1)

	flow := qrflow.NewLoginFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{
		PollInterval: 10 * time.Millisecond,
	}, qrflow.LoginCallbacks{
		OnAuthenticated: func(res qrflow.AuthResult) { authed <- res },
	})
	flow.Start()

	select {
	case res := <-authed:
		if res.Token != "poll-token" {
			t.Errorf("auth token = %q, want poll-token", res.Token)
		}
	case <-time.After(testTimeout):
		t.Fatal("polling fallback did not confirm the session")
	}
}

func TestLoginFlowGenerateFailure(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeLoginAPI{genErr: errors.New("backend down")}

	failed := make(chan error, 1)

	flow := qrflow.NewLoginFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{}, qrflow.LoginCallbacks{
		OnError: func(err error) { failed <- err },
	})
	flow.Start()

	select {
	case err := <-failed:
		if err == nil {
			t.Fatal("nil error reported")
		}
	case <-time.After(testTimeout):
		t.Fatal("generation failure was not reported")
	}
	if got := flow.Status(); got != qrflow.StatusError {
		t.Errorf("status = %s, want error", got)
	}
}

func TestCardFlowIdentifiesCard(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeCardAPI{}

	identified := make(chan model.CardScanData, 1)

	flow := qrflow.NewCardFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{}, qrflow.CardCallbacks{
		OnCardIdentified: func(card model.CardScanData) { identified <- card },
		OnError:          func(err error) { t.Errorf("unexpected error: %s", err) },
	})
	flow.Start()
	waitUntil(t, "subscription", func() bool { return tr.subscribedTo("qr-card:card-1") })

	tr.deliver("qr-card:card-1", realtime.MessageTypeCardIdentified, model.CardIdentifiedData{
		SessionID: "card-1",
		Status:    "authenticated",
		CardData: model.CardScanData{
			LoyaltyCardID: 42,
			CardNumber:    "LT-0042",
			Points:        250,
			User:          model.User{ID: 9, Name: "Greta"},
			Redemption: &model.PointsRules{
				PointsPerCurrency:      10,
				CurrencyAmount:         1,
				MinPointsForRedemption: 10,
			},
		},
	})

	var card model.CardScanData
	select {
	case card = <-identified:
	case <-time.After(testTimeout):
		t.Fatal("card identification was not reported")
	}
	if card.LoyaltyCardID != 42 || card.Points != 250 {
		t.Errorf("unexpected card data: %+v", card)
	}
	if card.Redemption == nil {
		t.Error("valid redemption rules were dropped")
	}
	if got := flow.Status(); got != qrflow.StatusAuthenticated {
		t.Errorf("status = %s, want authenticated", got)
	}
	waitUntil(t, "connection close", func() bool { return tr.closeCount() == 1 })
}

func TestCardFlowDropsBrokenRedemptionRules(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeCardAPI{}

	identified := make(chan model.CardScanData, 1)

	flow := qrflow.NewCardFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{}, qrflow.CardCallbacks{
		OnCardIdentified: func(card model.CardScanData) { identified <- card },
	})
	flow.Start()
	waitUntil(t, "subscription", func() bool { return tr.subscribedTo("qr-card:card-1") })

	// Zero rates cannot price a discount; the card stays usable but the
	// redemption option must disappear.
	tr.deliver("qr-card:card-1", realtime.MessageTypeCardIdentified, model.CardIdentifiedData{
		SessionID: "card-1",
		Status:    "authenticated",
		CardData: model.CardScanData{
			LoyaltyCardID: 43,
			CardNumber:    "LT-0043",
			Points:        100,
			Redemption:    &model.PointsRules{},
		},
	})

	select {
	case card := <-identified:
		if card.Redemption != nil {
			t.Errorf("broken redemption rules were kept: %+v", card.Redemption)
		}
	case <-time.After(testTimeout):
		t.Fatal("card identification was not reported")
	}
}

func TestCardFlowExpiryStatusUpdate(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeCardAPI{}

	expired := make(chan struct{}, 1)

	flow := qrflow.NewCardFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{}, qrflow.CardCallbacks{
		OnExpired: func() { expired <- struct{}{} },
	})
	flow.Start()
	waitUntil(t, "subscription", func() bool { return tr.subscribedTo("qr-card:card-1") })

	tr.deliver("qr-card:card-1", realtime.MessageTypeStatusUpdate, map[string]string{
		"session_id": "card-1",
		"status":     "expired",
	})

	select {
	case <-expired:
	case <-time.After(testTimeout):
		t.Fatal("expiry was not reported")
	}
	if got := flow.Status(); got != qrflow.StatusExpired {
		t.Errorf("status = %s, want expired", got)
	}
	waitUntil(t, "connection close", func() bool { return tr.closeCount() == 1 })
}

func TestCardFlowPollFallback(t *testing.T) {
	tr := newFakeTransport()
	api := &fakeCardAPI{}
	api.pollFn = func(sessionID string) (*model.QRCardPoll, error) {
		return &model.QRCardPoll{
			SessionID: sessionID,
			Status:    "authenticated",
			CardData: &model.CardScanData{
				LoyaltyCardID: 44,
				CardNumber:    "LT-0044",
				Points:        15,
			},
		}, nil
	}

	identified := make(chan model.CardScanData, 1)

	flow := qrflow.NewCardFlow(api, fakeTokens{}, realtime.NewManager(tr, false), qrflow.Options{
		PollInterval: 10 * time.Millisecond,
	}, qrflow.CardCallbacks{
		OnCardIdentified: func(card model.CardScanData) { identified <- card },
	})
	flow.Start()

	select {
	case card := <-identified:
		if card.LoyaltyCardID != 44 {
			t.Errorf("unexpected card: %+v", card)
		}
	case <-time.After(testTimeout):
		t.Fatal("polling fallback did not identify the card")
	}
}
