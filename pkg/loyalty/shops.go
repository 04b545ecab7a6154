package loyalty

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
)

// ShopFilter narrows a shop listing.
type ShopFilter struct {
	Page    int
	PerPage int
	Search  string
	Active  bool
}

// Shops lists the partner's shops.
func (c *Client) Shops(ctx context.Context, filter ShopFilter) ([]model.Shop, *model.PageMeta, error) {
	values := url.Values{}
	setPage(values, filter.Page, filter.PerPage)
	setString(values, "search", filter.Search)
	if filter.Active {
		values.Set("active", "true")
	}

	shops := []model.Shop{}
	meta, err := c.rc.RequestPaged(ctx, http.MethodGet, "/shop/shops"+queryString(values), nil, &shops)
	if err != nil {
		return nil, nil, err
	}
	return shops, meta, nil
}

// Shop reads a single shop.
func (c *Client) Shop(ctx context.Context, id int) (*model.Shop, error) {
	shop := model.Shop{}
	if err := c.rc.Request(ctx, http.MethodGet, "/shop/shops/"+strconv.Itoa(id), nil, &shop); err != nil {
		return nil, err
	}
	return &shop, nil
}
