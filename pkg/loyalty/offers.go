package loyalty

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
)

// OfferFilter narrows an offer listing.
type OfferFilter struct {
	Page     int
	PerPage  int
	Type     model.OfferType
	Featured bool
}

// OfferInput carries the writable fields of an offer.
type OfferInput struct {
	Title              string          `json:"title"`
	Description        string          `json:"description,omitempty"`
	Type               model.OfferType `json:"type"`
	DiscountPercentage float64         `json:"discount_percentage,omitempty"`
	DiscountAmount     float64         `json:"discount_amount,omitempty"`
	PointsRequired     int             `json:"points_required,omitempty"`
	PointsEarned       int             `json:"points_earned,omitempty"`
	PromoCode          string          `json:"promo_code,omitempty"`
	StartsAt           string          `json:"starts_at,omitempty"`
	EndsAt             string          `json:"ends_at,omitempty"`
	IsActive           bool            `json:"is_active"`
	IsFeatured         bool            `json:"is_featured,omitempty"`
}

// Offers lists the partner's offers.
func (c *Client) Offers(ctx context.Context, filter OfferFilter) ([]model.Offer, *model.PageMeta, error) {
	values := url.Values{}
	setPage(values, filter.Page, filter.PerPage)
	setString(values, "type", string(filter.Type))
	if filter.Featured {
		values.Set("featured", "true")
	}

	offers := []model.Offer{}
	meta, err := c.rc.RequestPaged(ctx, http.MethodGet, "/shop/offers"+queryString(values), nil, &offers)
	if err != nil {
		return nil, nil, err
	}
	return offers, meta, nil
}

// Offer reads a single offer.
func (c *Client) Offer(ctx context.Context, id int) (*model.Offer, error) {
	offer := model.Offer{}
	if err := c.rc.Request(ctx, http.MethodGet, "/shop/offers/"+strconv.Itoa(id), nil, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// CreateOffer creates a new offer.
func (c *Client) CreateOffer(ctx context.Context, input OfferInput) (*model.Offer, error) {
	offer := model.Offer{}
	if err := c.rc.Request(ctx, http.MethodPost, "/shop/offers", input, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// UpdateOffer replaces the writable fields of an offer.
func (c *Client) UpdateOffer(ctx context.Context, id int, input OfferInput) (*model.Offer, error) {
	offer := model.Offer{}
	if err := c.rc.Request(ctx, http.MethodPut, "/shop/offers/"+strconv.Itoa(id), input, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// DeleteOffer removes an offer.
func (c *Client) DeleteOffer(ctx context.Context, id int) error {
	return c.rc.Request(ctx, http.MethodDelete, "/shop/offers/"+strconv.Itoa(id), nil, nil)
}
