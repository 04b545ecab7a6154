// Package realtime owns the single connection to the platform's realtime
// provider and fans incoming messages out to channel subscriptions.
package realtime

import (
	"sync"

	"github.com/Loyalty-lt/sdk-go/pkg/rest"
	log "github.com/sirupsen/logrus"
)

// Manager maintains at most one live transport connection and a reference
// counted callback list per channel. The channel is subscribed on the
// transport when its first callback attaches and released when the last
// one detaches.
type Manager struct {
	mu        sync.Mutex
	transport Transport
	debug     bool

	connected bool
	nextSubID int
	channels  map[string]map[int]MessageFunc
	onError   func(err error)
}

// NewManager creates a manager around the given transport.
func NewManager(transport Transport, debug bool) *Manager {
	return &Manager{
		transport: transport,
		debug:     debug,
		channels:  make(map[string]map[int]MessageFunc),
	}
}

// NotifyError registers a callback for fatal connection errors, including
// failed token renewals. Only one callback is kept.
func (m *Manager) NotifyError(fn func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = fn
}

// Connect opens the connection with the given channel token. A renewal
// function may be supplied so the transport can re-authenticate when the
// provider signals token expiry. Connecting while already connected closes
// the previous connection first.
func (m *Manager) Connect(token string, renew RenewalFunc) error {
	m.mu.Lock()
	if m.connected {
		m.closeLocked()
	}
	m.mu.Unlock()

	err := m.transport.Connect(ConnectOptions{
		Token:     token,
		OnMessage: m.dispatch,
		OnError:   m.handleConnectionError,
		Renew:     renew,
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()

	if m.debug {
		log.Debug("realtime: connected")
	}

	return nil
}

// Subscription attaches one callback to one channel.
type Subscription struct {
	manager *Manager
	channel string
	id      int
	once    sync.Once
}

// Channel returns the channel name the subscription is attached to.
func (s *Subscription) Channel() string {
	return s.channel
}

// Unsubscribe detaches only this callback. Other subscriptions on the same
// channel keep receiving messages. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.manager.removeSubscription(s.channel, s.id)
	})
}

// Subscribe attaches the callback to the channel, creating the transport
// subscription for the first subscriber and reusing it afterwards.
func (m *Manager) Subscribe(channel string, fn MessageFunc) (*Subscription, error) {
	m.mu.Lock()

	if !m.connected {
		m.mu.Unlock()
		return nil, rest.NewError(rest.CodeNotConnected, "realtime connection not established, call Connect first", 0)
	}

	callbacks, ok := m.channels[channel]
	if !ok {
		callbacks = make(map[int]MessageFunc)
		m.channels[channel] = callbacks
	}

	m.nextSubID++
	id := m.nextSubID
	callbacks[id] = fn
	first := len(callbacks) == 1
	m.mu.Unlock()

	if first {
		if err := m.transport.Subscribe(channel); err != nil {
			m.mu.Lock()
			delete(callbacks, id)
			if len(callbacks) == 0 {
				delete(m.channels, channel)
			}
			m.mu.Unlock()
			return nil, err
		}
		if m.debug {
			log.Debugf("realtime: channel '%s' attached", channel)
		}
	}

	return &Subscription{manager: m, channel: channel, id: id}, nil
}

// Disconnect unsubscribes everything and closes the connection. It is
// idempotent and safe to call on a manager that never connected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected && len(m.channels) == 0 {
		return
	}

	m.closeLocked()
}

// ActiveSubscriptions returns the number of channels with at least one
// attached callback.
func (m *Manager) ActiveSubscriptions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels)
}

// Connected reports whether the manager holds a live connection.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Manager) removeSubscription(channel string, id int) {
	m.mu.Lock()

	callbacks, ok := m.channels[channel]
	if !ok {
		m.mu.Unlock()
		return
	}

	delete(callbacks, id)
	last := len(callbacks) == 0
	if last {
		delete(m.channels, channel)
	}
	connected := m.connected
	m.mu.Unlock()

	if last && connected {
		if err := m.transport.Unsubscribe(channel); err != nil {
			log.Warnf("realtime: failed to release channel '%s': %s", channel, err)
		}
		if m.debug {
			log.Debugf("realtime: channel '%s' released", channel)
		}
	}
}

// dispatch fans one inbound message out to the callbacks of its channel.
// Callbacks run outside the lock so they may subscribe or unsubscribe.
func (m *Manager) dispatch(msg Message) {
	m.mu.Lock()
	callbacks := make([]MessageFunc, 0, len(m.channels[msg.Channel]))
	for _, fn := range m.channels[msg.Channel] {
		callbacks = append(callbacks, fn)
	}
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(msg)
	}
}

func (m *Manager) handleConnectionError(err error) {
	log.Errorf("realtime: connection error: %s", err)

	m.mu.Lock()
	fn := m.onError
	m.mu.Unlock()

	if fn != nil {
		fn(err)
	}
}

// closeLocked clears all subscriptions and closes the transport. The
// caller holds the lock.
func (m *Manager) closeLocked() {
	m.channels = make(map[string]map[int]MessageFunc)
	m.connected = false

	if err := m.transport.Close(); err != nil {
		log.Warnf("realtime: failed to close connection: %s", err)
	}

	if m.debug {
		log.Debug("realtime: disconnected")
	}
}
