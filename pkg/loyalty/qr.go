package loyalty

import (
	"context"
	"net/http"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/qrflow"
	"github.com/Loyalty-lt/sdk-go/pkg/realtime"
	"github.com/Loyalty-lt/sdk-go/pkg/token"
)

// QRLogin builds a login flow. Each flow runs on its own realtime
// connection; call Start to generate the first session.
func (c *Client) QRLogin(opts qrflow.Options, cb qrflow.LoginCallbacks) *qrflow.LoginFlow {
	if c.cfg.AutoRegenerate {
		opts.AutoRegenerate = true
	}
	rt := realtime.NewManager(c.newTransport(), c.cfg.Debug)
	return qrflow.NewLoginFlow(c, tokenSource{gw: c.tokens}, rt, opts, cb)
}

// QRCardScan builds a card scan flow. Each flow runs on its own realtime
// connection; call Start to generate the first session.
func (c *Client) QRCardScan(opts qrflow.Options, cb qrflow.CardCallbacks) *qrflow.CardFlow {
	if c.cfg.AutoRegenerate {
		opts.AutoRegenerate = true
	}
	rt := realtime.NewManager(c.newTransport(), c.cfg.Debug)
	return qrflow.NewCardFlow(c, tokenSource{gw: c.tokens}, rt, opts, cb)
}

// tokenSource adapts the token gateway to the flow engine. Flow tokens are
// always minted with the default scope of the key pair.
type tokenSource struct {
	gw *token.Gateway
}

func (s tokenSource) Mint(ctx context.Context, sessionID string) (*model.ChannelToken, error) {
	return s.gw.Mint(ctx, sessionID, nil)
}

func (s tokenSource) RenewalFunc(sessionID string) realtime.RenewalFunc {
	return s.gw.RenewalFunc(sessionID, nil)
}

type generateSessionRequest struct {
	DeviceName string `json:"device_name"`
	ShopID     int    `json:"shop_id,omitempty"`
}

// GenerateQRLogin creates a new login session.
func (c *Client) GenerateQRLogin(ctx context.Context, deviceName string, shopID int) (*model.QRLoginSession, error) {
	sess := model.QRLoginSession{}
	req := generateSessionRequest{DeviceName: deviceName, ShopID: shopID}
	if err := c.rc.Request(ctx, http.MethodPost, "/shop/auth/qr-login/generate", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// PollQRLogin reads the current state of a login session.
func (c *Client) PollQRLogin(ctx context.Context, sessionID string) (*model.QRLoginPoll, error) {
	poll := model.QRLoginPoll{}
	if err := c.rc.Request(ctx, http.MethodPost, "/shop/auth/qr-login/poll/"+sessionID, nil, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// GenerateQRCard creates a new card scan session.
func (c *Client) GenerateQRCard(ctx context.Context, deviceName string, shopID int) (*model.QRCardSession, error) {
	sess := model.QRCardSession{}
	req := generateSessionRequest{DeviceName: deviceName, ShopID: shopID}
	if err := c.rc.Request(ctx, http.MethodPost, "/shop/qr-card/generate", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// PollQRCard reads the current state of a card scan session.
func (c *Client) PollQRCard(ctx context.Context, sessionID string) (*model.QRCardPoll, error) {
	poll := model.QRCardPoll{}
	if err := c.rc.Request(ctx, http.MethodGet, "/shop/qr-card/status/"+sessionID, nil, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// MintChannelToken requests a realtime token without going through a flow.
func (c *Client) MintChannelToken(ctx context.Context, sessionID string, opts *token.MintOptions) (*model.ChannelToken, error) {
	return c.tokens.Mint(ctx, sessionID, opts)
}
