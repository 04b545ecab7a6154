package qrflow

// Status is the caller-visible state of a QR identification flow.
type Status int

const (
	StatusGenerating Status = iota
	StatusPending
	StatusScanned
	StatusAuthenticated
	StatusExpired
	StatusCancelled
	StatusError
)

func (s Status) String() string {
	names := map[Status]string{
		StatusGenerating:    "generating",
		StatusPending:       "pending",
		StatusScanned:       "scanned",
		StatusAuthenticated: "authenticated",
		StatusExpired:       "expired",
		StatusCancelled:     "cancelled",
		StatusError:         "error",
	}

	name, ok := names[s]
	if !ok {
		return "unknown"
	}

	return name
}

// Terminal reports whether the status ends the current session.
func (s Status) Terminal() bool {
	switch s {
	case StatusAuthenticated, StatusExpired, StatusCancelled, StatusError:
		return true
	}
	return false
}

// LoginChannel returns the realtime channel name of a login session.
func LoginChannel(sessionID string) string {
	return "qr-login:" + sessionID
}

// CardChannel returns the realtime channel name of a card scan session.
func CardChannel(sessionID string) string {
	return "qr-card:" + sessionID
}
