package sandbox

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
)

// qrSession is the sandbox-side state of one QR identification session.
// Sessions are ephemeral; the hub holds them in memory only.
type qrSession struct {
	ID         string
	Kind       model.SessionKind
	Status     string
	Channel    string
	DeviceName string
	ShopID     int
	ExpiresAt  time.Time

	// Login result, set on confirm.
	Token        string
	RefreshToken string
	User         *model.User

	// Card result, set on identify.
	Card *model.CardScanData
}

func (s *qrSession) terminal() bool {
	switch s.Status {
	case "authenticated", "expired", "cancelled":
		return true
	}
	return false
}

type sessionHub struct {
	mu       sync.Mutex
	sessions map[string]*qrSession
	ttl      time.Duration
}

func newSessionHub(ttl time.Duration) *sessionHub {
	return &sessionHub{
		sessions: make(map[string]*qrSession),
		ttl:      ttl,
	}
}

func (h *sessionHub) create(kind model.SessionKind, deviceName string, shopID int) *qrSession {
	id := uuid.NewString()

	channel := "qr-login:" + id
	if kind == model.SessionKindCardScan {
		channel = "qr-card:" + id
	}

	sess := &qrSession{
		ID:         id,
		Kind:       kind,
		Status:     "pending",
		Channel:    channel,
		DeviceName: deviceName,
		ShopID:     shopID,
		ExpiresAt:  time.Now().Add(h.ttl).UTC(),
	}

	h.mu.Lock()
	h.sessions[id] = sess
	h.mu.Unlock()

	return sess
}

// get returns a snapshot of the session, expiring it on the way when its
// lifetime ran out.
func (h *sessionHub) get(id string) (qrSession, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[id]
	if !ok {
		return qrSession{}, false
	}

	if !sess.terminal() && time.Now().After(sess.ExpiresAt) {
		sess.Status = "expired"
	}

	return *sess, true
}

// update applies fn to the session under the hub lock and returns the
// resulting snapshot. Terminal sessions are left untouched.
func (h *sessionHub) update(id string, fn func(*qrSession)) (qrSession, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[id]
	if !ok {
		return qrSession{}, false
	}

	if !sess.terminal() && time.Now().After(sess.ExpiresAt) {
		sess.Status = "expired"
	}
	if !sess.terminal() {
		fn(sess)
	}

	return *sess, true
}
