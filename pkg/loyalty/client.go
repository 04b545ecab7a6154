// Package loyalty is the entry point of the SDK. A Client bundles the REST
// pipeline, the token gateway and the realtime machinery behind one facade
// and hands out the QR identification flows.
package loyalty

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/Loyalty-lt/sdk-go/config"
	"github.com/Loyalty-lt/sdk-go/pkg/realtime"
	"github.com/Loyalty-lt/sdk-go/pkg/realtime/adapter/natsio"
	"github.com/Loyalty-lt/sdk-go/pkg/realtime/adapter/websocketio"
	"github.com/Loyalty-lt/sdk-go/pkg/rest"
	"github.com/Loyalty-lt/sdk-go/pkg/token"
)

// Version of the SDK, also sent as part of the user agent.
const Version = "1.0.0"

// Client talks to the loyalty platform on behalf of one API key pair.
type Client struct {
	cfg    *config.Config
	rc     *rest.Client
	tokens *token.Gateway

	// rt is the shared connection for ad hoc channel subscriptions. The
	// QR flows run on their own connections.
	rt           *realtime.Manager
	newTransport func() realtime.Transport
}

// New validates the configuration and builds a client. Defaults are
// applied first, so a config carrying only the key pair is enough.
func New(cfg *config.Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, rest.NewError(rest.CodeInvalidConfig, err.Error(), 0)
	}

	rc := rest.New(cfg)
	factory := transportFactory(cfg)

	return &Client{
		cfg:          cfg,
		rc:           rc,
		tokens:       token.NewGateway(rc),
		rt:           realtime.NewManager(factory(), cfg.Debug),
		newTransport: factory,
	}, nil
}

// transportFactory picks the realtime transport from the URL scheme. A
// nats:// URL selects the NATS transport used by self-hosted deployments
// and the sandbox; anything else goes through the websocket gateway.
func transportFactory(cfg *config.Config) func() realtime.Transport {
	return func() realtime.Transport {
		if strings.HasPrefix(cfg.RealtimeURL, "nats://") {
			return natsio.New(natsio.Config{URL: cfg.RealtimeURL, Debug: cfg.Debug})
		}
		return websocketio.New(websocketio.Config{URL: cfg.RealtimeURL, Debug: cfg.Debug})
	}
}

// Config returns the effective configuration.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// ConnectRealtime opens the shared realtime connection with a token scoped
// to the given session or channel id.
func (c *Client) ConnectRealtime(ctx context.Context, sessionID string) error {
	tok, err := c.tokens.Mint(ctx, sessionID, nil)
	if err != nil {
		return err
	}
	return c.rt.Connect(tok.Token, c.tokens.RenewalFunc(sessionID, nil))
}

// SubscribeChannel attaches a callback to a channel on the shared realtime
// connection. ConnectRealtime must have been called first.
func (c *Client) SubscribeChannel(channel string, fn realtime.MessageFunc) (*realtime.Subscription, error) {
	return c.rt.Subscribe(channel, fn)
}

// DisconnectRealtime closes the shared realtime connection. QR flows are
// unaffected, they run on their own connections.
func (c *Client) DisconnectRealtime() {
	c.rt.Disconnect()
}

// queryString encodes the values as a query suffix, or returns an empty
// string when there is nothing to encode.
func queryString(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func setInt(values url.Values, key string, v int) {
	if v > 0 {
		values.Set(key, strconv.Itoa(v))
	}
}

func setString(values url.Values, key, v string) {
	if v != "" {
		values.Set(key, v)
	}
}

func setPage(values url.Values, page, perPage int) {
	setInt(values, "page", page)
	setInt(values, "per_page", perPage)
}
