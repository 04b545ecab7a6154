package loyalty

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
)

// CardFilter narrows a loyalty card listing.
type CardFilter struct {
	Page    int
	PerPage int
	UserID  int
	Status  string
}

// Cards lists loyalty cards visible to the key pair.
func (c *Client) Cards(ctx context.Context, filter CardFilter) ([]model.LoyaltyCard, *model.PageMeta, error) {
	values := url.Values{}
	setPage(values, filter.Page, filter.PerPage)
	setInt(values, "user_id", filter.UserID)
	setString(values, "status", filter.Status)

	cards := []model.LoyaltyCard{}
	meta, err := c.rc.RequestPaged(ctx, http.MethodGet, "/shop/loyalty-cards"+queryString(values), nil, &cards)
	if err != nil {
		return nil, nil, err
	}
	return cards, meta, nil
}

// Card reads a single loyalty card.
func (c *Client) Card(ctx context.Context, id int) (*model.LoyaltyCard, error) {
	card := model.LoyaltyCard{}
	if err := c.rc.Request(ctx, http.MethodGet, "/shop/loyalty-cards/"+strconv.Itoa(id), nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// CardByNumber looks a card up by its printed number, the way a terminal
// does when the customer types the number instead of scanning.
func (c *Client) CardByNumber(ctx context.Context, number string) (*model.LoyaltyCard, error) {
	card := model.LoyaltyCard{}
	path := "/shop/loyalty-cards/number/" + url.PathEscape(number)
	if err := c.rc.Request(ctx, http.MethodGet, path, nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// CardInfoQuery identifies a card by any one of its lookup keys. Fields
// left at their zero value are not sent.
type CardInfoQuery struct {
	CardID     int
	CardNumber string
	UserID     int
}

// CardInfo resolves a card by id, printed number or card holder, whichever
// keys the query carries.
func (c *Client) CardInfo(ctx context.Context, query CardInfoQuery) (*model.LoyaltyCard, error) {
	values := url.Values{}
	setInt(values, "card_id", query.CardID)
	setString(values, "card_number", query.CardNumber)
	setInt(values, "user_id", query.UserID)

	card := model.LoyaltyCard{}
	if err := c.rc.Request(ctx, http.MethodGet, "/shop/loyalty-cards/info"+queryString(values), nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// PointsBalance reads the points balance of a loyalty card.
func (c *Client) PointsBalance(ctx context.Context, cardID int) (*model.PointsBalance, error) {
	balance := model.PointsBalance{}
	path := "/shop/loyalty-cards/" + strconv.Itoa(cardID) + "/balance"
	if err := c.rc.Request(ctx, http.MethodGet, path, nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}
