// Package token provisions scope-limited realtime channel tokens from the
// platform backend.
package token

import (
	"context"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/realtime"
	"github.com/Loyalty-lt/sdk-go/pkg/rest"
)

const mintPath = "/shop/realtime/token"

// MintOptions narrow the scope of a minted token.
type MintOptions struct {
	UserID int    `json:"user_id,omitempty"`
	Scope  string `json:"scope,omitempty"`
}

// Gateway requests channel tokens through the REST pipeline.
type Gateway struct {
	rc *rest.Client
}

// NewGateway creates a gateway on top of the given REST client.
func NewGateway(rc *rest.Client) *Gateway {
	return &Gateway{rc: rc}
}

type mintRequest struct {
	SessionID string `json:"session_id"`
	UserID    int    `json:"user_id,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

// Mint requests a token scoped to the given session's channel.
func (g *Gateway) Mint(ctx context.Context, sessionID string, opts *MintOptions) (*model.ChannelToken, error) {
	req := mintRequest{SessionID: sessionID}
	if opts != nil {
		req.UserID = opts.UserID
		req.Scope = opts.Scope
	}

	tok := model.ChannelToken{}
	if err := g.rc.Request(ctx, "POST", mintPath, req, &tok); err != nil {
		return nil, err
	}

	return &tok, nil
}

// RenewalFunc returns a closure that re-mints a token for the same session
// and options. Renewal therefore always carries the scope of the original
// token. The closure is handed to the realtime manager and never invoked
// by the gateway itself.
func (g *Gateway) RenewalFunc(sessionID string, opts *MintOptions) realtime.RenewalFunc {
	return func() (string, error) {
		tok, err := g.Mint(context.Background(), sessionID, opts)
		if err != nil {
			return "", err
		}
		return tok.Token, nil
	}
}
