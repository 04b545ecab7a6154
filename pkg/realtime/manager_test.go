package realtime

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/Loyalty-lt/sdk-go/pkg/rest"
	"github.com/pkg/errors"
)

// fakeTransport records transport calls and lets tests inject messages.
type fakeTransport struct {
	mu           sync.Mutex
	opts         ConnectOptions
	connects     int
	closes       int
	subscribed   map[string]int
	unsubscribed map[string]int
	connectErr   error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		subscribed:   make(map[string]int),
		unsubscribed: make(map[string]int),
	}
}

func (t *fakeTransport) Connect(opts ConnectOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectErr != nil {
		return t.connectErr
	}
	t.opts = opts
	t.connects++
	return nil
}

func (t *fakeTransport) Subscribe(channel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribed[channel]++
	return nil
}

func (t *fakeTransport) Unsubscribe(channel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unsubscribed[channel]++
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	return nil
}

func (t *fakeTransport) deliver(channel, msgType string, data interface{}) {
	payload, _ := json.Marshal(data)
	t.mu.Lock()
	onMessage := t.opts.OnMessage
	t.mu.Unlock()
	onMessage(Message{Type: msgType, Channel: channel, Data: payload})
}

func TestSubscribeBeforeConnect(t *testing.T) {
	m := NewManager(newFakeTransport(), false)

	_, err := m.Subscribe("qr-login:abc", func(Message) {})
	if err == nil {
		t.Fatal("expected error when subscribing before connect")
	}
	if rest.CodeOf(err) != rest.CodeNotConnected {
		t.Errorf("unexpected error code: %s", rest.CodeOf(err))
	}
}

func TestChannelReferenceCounting(t *testing.T) {
	tr := newFakeTransport()
	m := NewManager(tr, false)

	if err := m.Connect("token", nil); err != nil {
		t.Fatal(err)
	}

	var first, second int
	subA, err := m.Subscribe("qr-card:s1", func(Message) { first++ })
	if err != nil {
		t.Fatal(err)
	}
	subB, err := m.Subscribe("qr-card:s1", func(Message) { second++ })
	if err != nil {
		t.Fatal(err)
	}

	if tr.subscribed["qr-card:s1"] != 1 {
		t.Errorf("transport subscribed %d times, want 1", tr.subscribed["qr-card:s1"])
	}

	tr.deliver("qr-card:s1", MessageTypeCardIdentified, map[string]string{"session_id": "s1"})
	if first != 1 || second != 1 {
		t.Errorf("both callbacks should fire, got %d/%d", first, second)
	}

	// Removing one subscription keeps the other one receiving.
	subA.Unsubscribe()
	if tr.unsubscribed["qr-card:s1"] != 0 {
		t.Error("channel released while a subscriber remains")
	}

	tr.deliver("qr-card:s1", MessageTypeCardIdentified, map[string]string{"session_id": "s1"})
	if first != 1 {
		t.Errorf("unsubscribed callback fired, count %d", first)
	}
	if second != 2 {
		t.Errorf("remaining callback missed a message, count %d", second)
	}

	// The last detach releases the channel.
	subB.Unsubscribe()
	if tr.unsubscribed["qr-card:s1"] != 1 {
		t.Errorf("channel not released, unsubscribes %d", tr.unsubscribed["qr-card:s1"])
	}
	if m.ActiveSubscriptions() != 0 {
		t.Errorf("active subscriptions = %d, want 0", m.ActiveSubscriptions())
	}
}

func TestUnsubscribeTwiceIsHarmless(t *testing.T) {
	tr := newFakeTransport()
	m := NewManager(tr, false)
	if err := m.Connect("token", nil); err != nil {
		t.Fatal(err)
	}

	sub, err := m.Subscribe("user-1", func(Message) {})
	if err != nil {
		t.Fatal(err)
	}

	sub.Unsubscribe()
	sub.Unsubscribe()

	if tr.unsubscribed["user-1"] != 1 {
		t.Errorf("transport unsubscribed %d times, want 1", tr.unsubscribed["user-1"])
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	tr := newFakeTransport()
	m := NewManager(tr, false)

	// Disconnecting a never-connected manager must not panic.
	m.Disconnect()
	if tr.closes != 0 {
		t.Errorf("transport closed %d times before connect", tr.closes)
	}

	if err := m.Connect("token", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Subscribe("session-x", func(Message) {}); err != nil {
		t.Fatal(err)
	}

	m.Disconnect()
	m.Disconnect()

	if tr.closes != 1 {
		t.Errorf("transport closed %d times, want 1", tr.closes)
	}
	if m.ActiveSubscriptions() != 0 {
		t.Errorf("active subscriptions = %d, want 0", m.ActiveSubscriptions())
	}
	if m.Connected() {
		t.Error("manager still reports connected")
	}
}

func TestReconnectClosesPreviousConnection(t *testing.T) {
	tr := newFakeTransport()
	m := NewManager(tr, false)

	if err := m.Connect("token-1", nil); err != nil {
		t.Fatal(err)
	}
	if err := m.Connect("token-2", nil); err != nil {
		t.Fatal(err)
	}

	if tr.connects != 2 {
		t.Errorf("transport connected %d times, want 2", tr.connects)
	}
	if tr.closes != 1 {
		t.Errorf("previous connection not closed, closes %d", tr.closes)
	}
}

func TestConnectFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.connectErr = errors.New("gateway unreachable")
	m := NewManager(tr, false)

	if err := m.Connect("token", nil); err == nil {
		t.Fatal("expected connect error")
	}
	if m.Connected() {
		t.Error("manager reports connected after failed connect")
	}
}

func TestRenewalFailureSurfacesAsConnectionError(t *testing.T) {
	tr := newFakeTransport()
	m := NewManager(tr, false)

	var got error
	m.NotifyError(func(err error) { got = err })

	renew := func() (string, error) {
		return "", errors.New("mint rejected")
	}
	if err := m.Connect("token", renew); err != nil {
		t.Fatal(err)
	}

	// Simulate the provider signalling expiry and the transport failing
	// the renewal.
	if _, err := tr.opts.Renew(); err == nil {
		t.Fatal("expected renewal to fail")
	}
	tr.opts.OnError(rest.NewError(rest.CodeTokenRenewalFailed, "token renewal failed", 0))

	if got == nil {
		t.Fatal("connection error not surfaced")
	}
	if rest.CodeOf(got) != rest.CodeTokenRenewalFailed {
		t.Errorf("unexpected error code: %s", rest.CodeOf(got))
	}
}
