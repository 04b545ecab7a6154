package loyalty

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
)

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	Page    int
	PerPage int
	CardID  int
	Type    model.TransactionType
}

// AwardPointsInput books points onto a card after a purchase.
type AwardPointsInput struct {
	LoyaltyCardID int     `json:"loyalty_card_id"`
	Points        int     `json:"points"`
	Amount        float64 `json:"amount,omitempty"`
	Description   string  `json:"description,omitempty"`
	ReferenceID   string  `json:"reference_id,omitempty"`
	ShopID        int     `json:"shop_id,omitempty"`
}

// RedeemPointsInput deducts points from a card in exchange for a discount.
type RedeemPointsInput struct {
	LoyaltyCardID int    `json:"loyalty_card_id"`
	Points        int    `json:"points"`
	Description   string `json:"description,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
	ShopID        int    `json:"shop_id,omitempty"`
}

// AwardPoints credits points to a loyalty card.
func (c *Client) AwardPoints(ctx context.Context, input AwardPointsInput) (*model.PointsTransaction, error) {
	tx := model.PointsTransaction{}
	if err := c.rc.Request(ctx, http.MethodPost, "/shop/points/award", input, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// RedeemPoints deducts points from a loyalty card. The backend rejects the
// booking when the balance or the redemption rules do not allow it.
func (c *Client) RedeemPoints(ctx context.Context, input RedeemPointsInput) (*model.PointsTransaction, error) {
	tx := model.PointsTransaction{}
	if err := c.rc.Request(ctx, http.MethodPost, "/shop/points/redeem", input, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Transactions lists points transactions.
func (c *Client) Transactions(ctx context.Context, filter TransactionFilter) ([]model.PointsTransaction, *model.PageMeta, error) {
	values := url.Values{}
	setPage(values, filter.Page, filter.PerPage)
	setInt(values, "loyalty_card_id", filter.CardID)
	setString(values, "type", string(filter.Type))

	txs := []model.PointsTransaction{}
	meta, err := c.rc.RequestPaged(ctx, http.MethodGet, "/shop/points/transactions"+queryString(values), nil, &txs)
	if err != nil {
		return nil, nil, err
	}
	return txs, meta, nil
}
