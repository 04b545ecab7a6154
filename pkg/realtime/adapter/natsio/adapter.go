// Package natsio implements the realtime transport on top of a NATS
// server. Channel names map directly to subjects; the channel token is
// used as the NATS connection token. Self-hosted deployments and the
// sandbox backend use this transport instead of the hosted websocket
// gateway.
package natsio

import (
	"fmt"
	"sync"

	"github.com/Loyalty-lt/sdk-go/pkg/realtime"
	"github.com/Loyalty-lt/sdk-go/pkg/rest"
	nats "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config holds the NATS connection settings.
type Config struct {
	// URL of the NATS server, e.g. nats://localhost:4222.
	URL   string
	Debug bool
}

type natsTransport struct {
	cfg Config

	mu   sync.Mutex
	nc   *nats.Conn
	opts realtime.ConnectOptions
	subs map[string]*nats.Subscription
}

// New creates a NATS transport. The connection is opened by Connect.
func New(cfg Config) realtime.Transport {
	return &natsTransport{cfg: cfg}
}

func (t *natsTransport) Connect(opts realtime.ConnectOptions) error {
	options := []nats.Option{
		nats.Name("loyalty-sdk"),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Errorf("natsio: async error: %s", err)
		}),
	}

	// The token handler feeds reconnect attempts; renewal failure must
	// surface instead of silently retrying with the stale token.
	if opts.Renew != nil {
		renew := opts.Renew
		current := opts.Token
		options = append(options, nats.TokenHandler(func() string {
			token, err := renew()
			if err != nil {
				log.Errorf("natsio: token renewal failed: %s", err)
				if opts.OnError != nil {
					opts.OnError(rest.NewError(rest.CodeTokenRenewalFailed,
						fmt.Sprintf("token renewal failed: %s", err), 0))
				}
				return current
			}
			current = token
			return token
		}))
	} else {
		options = append(options, nats.Token(opts.Token))
	}

	nc, err := nats.Connect(t.cfg.URL, options...)
	if err != nil {
		return rest.NewError(rest.CodeNetworkError, fmt.Sprintf("realtime connection failed: %s", err), 0)
	}

	t.mu.Lock()
	t.nc = nc
	t.opts = opts
	t.subs = make(map[string]*nats.Subscription)
	t.mu.Unlock()

	return nil
}

func (t *natsTransport) Subscribe(channel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nc == nil {
		return rest.NewError(rest.CodeNotConnected, "realtime connection is closed", 0)
	}

	if _, ok := t.subs[channel]; ok {
		return nil
	}

	opts := t.opts
	sub, err := t.nc.Subscribe(channel, func(msg *nats.Msg) {
		parsed, err := realtime.ParseMessage(msg.Subject, msg.Data)
		if err != nil {
			log.Warnf("natsio: dropping unparsable message on '%s': %s", msg.Subject, err)
			return
		}
		if opts.OnMessage != nil {
			opts.OnMessage(parsed)
		}
	})
	if err != nil {
		return errors.Wrapf(err, "failed to subscribe channel '%s'", channel)
	}

	t.subs[channel] = sub
	if t.cfg.Debug {
		log.Debugf("natsio: subscribed '%s'", channel)
	}

	return nil
}

func (t *natsTransport) Unsubscribe(channel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub, ok := t.subs[channel]
	if !ok {
		return nil
	}
	delete(t.subs, channel)

	if err := sub.Unsubscribe(); err != nil {
		return errors.Wrapf(err, "failed to unsubscribe channel '%s'", channel)
	}

	return nil
}

func (t *natsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nc == nil {
		return nil
	}

	t.nc.Close()
	t.nc = nil
	t.subs = nil

	return nil
}
