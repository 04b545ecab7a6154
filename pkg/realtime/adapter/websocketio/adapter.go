// Package websocketio implements the realtime transport against the hosted
// websocket gateway. The wire protocol is JSON text frames: the client
// sends {"action": ..., "channel"/"token": ...} commands, the gateway
// pushes {"type", "channel", "data", "timestamp"} envelopes and announces
// token expiry with a token_expiring frame.
package websocketio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/Loyalty-lt/sdk-go/pkg/realtime"
	"github.com/Loyalty-lt/sdk-go/pkg/rest"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
	actionAuth        = "auth"

	dialTimeout = 15 * time.Second
)

type command struct {
	Action  string `json:"action"`
	Channel string `json:"channel,omitempty"`
	Token   string `json:"token,omitempty"`
}

// Config holds the websocket gateway settings.
type Config struct {
	// URL of the gateway, e.g. wss://realtime.loyalty.lt/v1.
	URL   string
	Debug bool
}

// wsTransport tracks the current gateway connection. Each Connect creates
// a fresh gatewayConn and the workers of a superseded connection only ever
// touch their own; a stale reader can neither close the successor nor
// surface its error into the new session.
type wsTransport struct {
	cfg Config

	mu   sync.Mutex
	curr *gatewayConn
}

// New creates a websocket transport. The connection is opened by Connect.
func New(cfg Config) realtime.Transport {
	return &wsTransport{cfg: cfg}
}

func (t *wsTransport) Connect(opts realtime.ConnectOptions) error {
	endpoint, err := url.Parse(t.cfg.URL)
	if err != nil {
		return errors.Wrap(err, "invalid realtime URL")
	}
	q := endpoint.Query()
	q.Set("token", opts.Token)
	endpoint.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, br, _, err := ws.DefaultDialer.Dial(ctx, endpoint.String())
	if err != nil {
		return rest.NewError(rest.CodeNetworkError, fmt.Sprintf("realtime connection failed: %s", err), 0)
	}

	var src io.Reader = conn
	if br != nil {
		src = br
	}

	gc := &gatewayConn{
		cfg:      t.cfg,
		conn:     conn,
		src:      src,
		opts:     opts,
		outboxCh: make(chan []byte, 16),
		closeCh:  make(chan struct{}),
	}

	t.mu.Lock()
	prev := t.curr
	t.curr = gc
	t.mu.Unlock()

	if prev != nil {
		prev.close()
	}

	go gc.inboxWorker()
	go gc.outboxWorker()

	return nil
}

func (t *wsTransport) Subscribe(channel string) error {
	return t.send(command{Action: actionSubscribe, Channel: channel})
}

func (t *wsTransport) Unsubscribe(channel string) error {
	return t.send(command{Action: actionUnsubscribe, Channel: channel})
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	gc := t.curr
	t.mu.Unlock()

	if gc != nil {
		gc.close()
	}
	return nil
}

func (t *wsTransport) send(cmd command) error {
	t.mu.Lock()
	gc := t.curr
	t.mu.Unlock()

	if gc == nil {
		return rest.NewError(rest.CodeNotConnected, "realtime connection is closed", 0)
	}
	return gc.send(cmd)
}

// gatewayConn is the state of one dialed connection. conn, src and opts
// never change after creation, so the workers read them without locking.
type gatewayConn struct {
	cfg      Config
	conn     net.Conn
	src      io.Reader
	opts     realtime.ConnectOptions
	outboxCh chan []byte

	mu      sync.Mutex
	closeCh chan struct{}
	closed  bool
}

func (g *gatewayConn) send(cmd command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to marshal realtime command")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return rest.NewError(rest.CodeNotConnected, "realtime connection is closed", 0)
	}

	select {
	case g.outboxCh <- data:
		return nil
	default:
		return errors.New("realtime outbox is full")
	}
}

// close is idempotent; the outbox worker performs the actual close
// handshake when the channel closes.
func (g *gatewayConn) close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	close(g.closeCh)
}

func (g *gatewayConn) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// inboxWorker reads frames until the connection dies. Control frames are
// handled inline so close handshakes and pings do not stall the reader.
func (g *gatewayConn) inboxWorker() {
	state := ws.StateClientSide
	ch := wsutil.ControlFrameHandler(g.conn, state)

	r := &wsutil.Reader{
		Source:         g.src,
		State:          state,
		CheckUTF8:      true,
		OnIntermediate: ch,
	}

	for {
		h, err := r.NextFrame()
		if err != nil {
			g.surfaceReadError(err)
			return
		}

		if h.OpCode.IsControl() {
			if h.OpCode == ws.OpClose {
				if g.cfg.Debug {
					log.Debug("websocketio: connection closed by gateway")
				}
				g.surfaceReadError(io.EOF)
				return
			}
			if err = ch(h, r); err != nil {
				log.Errorf("websocketio: control frame error: %v", err)
				g.surfaceReadError(err)
				return
			}
			continue
		}

		data, err := io.ReadAll(r)
		if err != nil {
			g.surfaceReadError(err)
			return
		}

		g.handleFrame(data)
	}
}

func (g *gatewayConn) outboxWorker() {
	state := ws.StateClientSide
	w := wsutil.NewWriter(g.conn, state, 0)

	for {
		select {
		case data := <-g.outboxCh:
			w.Reset(g.conn, state, ws.OpText)
			var err error
			if _, err = w.Write(data); err == nil {
				err = w.Flush()
			}
			if err != nil {
				log.Errorf("websocketio: write error: %s", err)
			}
		case <-g.closeCh:
			w.Reset(g.conn, state, ws.OpClose)
			if _, err := w.Write(nil); err == nil {
				_ = w.Flush()
			}
			g.conn.Close()
			return
		}
	}
}

func (g *gatewayConn) handleFrame(data []byte) {
	msg, err := parseFrame(data)
	if err != nil {
		log.Warnf("websocketio: dropping unparsable frame: %s", err)
		return
	}

	if msg.Type == realtime.MessageTypeTokenExpiring {
		g.renewToken()
		return
	}

	if g.opts.OnMessage != nil {
		g.opts.OnMessage(msg)
	}
}

// renewToken asks the renewal function for a fresh token and re-auths the
// connection. A failed renewal is a fatal connection error; reconnecting
// with the stale token is never attempted.
func (g *gatewayConn) renewToken() {
	if g.opts.Renew == nil {
		return
	}

	token, err := g.opts.Renew()
	if err != nil {
		log.Errorf("websocketio: token renewal failed: %s", err)
		g.close()
		if g.opts.OnError != nil {
			g.opts.OnError(rest.NewError(rest.CodeTokenRenewalFailed,
				fmt.Sprintf("token renewal failed: %s", err), 0))
		}
		return
	}

	if err := g.send(command{Action: actionAuth, Token: token}); err != nil {
		log.Errorf("websocketio: failed to send renewed token: %s", err)
	}
}

func (g *gatewayConn) surfaceReadError(err error) {
	if g.isClosed() {
		return
	}

	g.close()
	if g.opts.OnError != nil {
		g.opts.OnError(rest.NewError(rest.CodeNetworkError,
			fmt.Sprintf("realtime connection lost: %s", err), 0))
	}
}

// parseFrame decodes a gateway envelope. The channel is part of the frame
// on this transport.
func parseFrame(data []byte) (realtime.Message, error) {
	frame := struct {
		Type      string          `json:"type"`
		Channel   string          `json:"channel"`
		Data      json.RawMessage `json:"data"`
		Timestamp time.Time       `json:"timestamp"`
	}{}
	if err := json.Unmarshal(data, &frame); err != nil {
		return realtime.Message{}, err
	}

	msg := realtime.Message{
		Type:      frame.Type,
		Channel:   frame.Channel,
		Data:      frame.Data,
		Timestamp: frame.Timestamp,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	return msg, nil
}
