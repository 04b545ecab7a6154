package realtime

import (
	"encoding/json"
	"time"
)

// Recognized message types on the QR session channels.
const (
	MessageTypeStatusUpdate   = "status_update"
	MessageTypeCardIdentified = "card_identified"
	MessageTypeTokenExpiring  = "token_expiring"
)

// Message is the envelope every realtime event is delivered in.
type Message struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel,omitempty"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// MessageFunc consumes messages delivered on a subscribed channel.
type MessageFunc func(msg Message)

// RenewalFunc returns a fresh channel token for the scope the connection
// was opened with.
type RenewalFunc func() (string, error)

// ParseMessage decodes a wire frame into a Message and stamps the channel
// it arrived on. Frames without a timestamp get the local receive time.
func ParseMessage(channel string, data []byte) (Message, error) {
	msg := Message{}
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, err
	}

	msg.Channel = channel
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	return msg, nil
}
