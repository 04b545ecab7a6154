package model

import "time"

// SessionKind distinguishes the two QR identification flows.
type SessionKind string

const (
	SessionKindLogin    SessionKind = "login"
	SessionKindCardScan SessionKind = "card_scan"
)

// QRLoginSession is returned by the qr-login/generate endpoint.
type QRLoginSession struct {
	SessionID string    `json:"session_id"`
	QRCode    string    `json:"qr_code"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

// QRLoginPoll is the answer of the qr-login/poll endpoint. Token and User
// are only present once the login was confirmed on the second device.
type QRLoginPoll struct {
	Status       string `json:"status"`
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// QRCardSession is returned by the qr-card/generate endpoint.
type QRCardSession struct {
	SessionID   string    `json:"session_id"`
	QRCode      string    `json:"qr_code"`
	Channel     string    `json:"channel"`
	PartnerID   int       `json:"partner_id,omitempty"`
	PartnerName string    `json:"partner_name,omitempty"`
	ShopID      int       `json:"shop_id,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// QRCardPoll is the answer of the qr-card/status endpoint.
type QRCardPoll struct {
	SessionID string        `json:"session_id"`
	Status    string        `json:"status"`
	CardData  *CardScanData `json:"card_data,omitempty"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// CardScanData is delivered once per successful card identification.
type CardScanData struct {
	LoyaltyCardID int          `json:"loyalty_card_id"`
	CardNumber    string       `json:"card_number"`
	Points        int          `json:"points"`
	User          User         `json:"user"`
	Redemption    *PointsRules `json:"redemption,omitempty"`
	ScannedAt     time.Time    `json:"scanned_at"`
}

// ChannelToken grants scope-limited access to one realtime channel.
type ChannelToken struct {
	Token       string `json:"token"`
	Expires     int64  `json:"expires"`
	Channel     string `json:"channel"`
	SessionType string `json:"session_type,omitempty"`
}

// QRLoginStatusData is the payload of a status_update realtime message.
type QRLoginStatusData struct {
	SessionID    string `json:"session_id"`
	Status       string `json:"status"`
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// CardIdentifiedData is the payload of a card_identified realtime message.
type CardIdentifiedData struct {
	SessionID string       `json:"session_id"`
	Status    string       `json:"status"`
	CardData  CardScanData `json:"card_data"`
	Timestamp time.Time    `json:"timestamp"`
}
