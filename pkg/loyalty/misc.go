package loyalty

import (
	"context"
	"net/http"
)

// CredentialInfo describes the key pair as seen by the backend.
type CredentialInfo struct {
	Valid       bool   `json:"valid"`
	PartnerID   int    `json:"partner_id,omitempty"`
	PartnerName string `json:"partner_name,omitempty"`
	ShopID      int    `json:"shop_id,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

// ValidateCredentials checks the configured key pair against the backend.
func (c *Client) ValidateCredentials(ctx context.Context) (*CredentialInfo, error) {
	info := CredentialInfo{}
	if err := c.rc.Request(ctx, http.MethodGet, "/shop/auth/validate", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// HealthStatus is the backend's health report.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// HealthCheck reports whether the backend is reachable and healthy.
func (c *Client) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	health := HealthStatus{}
	if err := c.rc.Request(ctx, http.MethodGet, "/shop/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

type sendAppLinkRequest struct {
	Phone        string `json:"phone"`
	ShopID       int    `json:"shop_id"`
	CustomerName string `json:"customer_name,omitempty"`
	Language     string `json:"language"`
}

// SendAppLink texts the customer a download link for the mobile app. Shown
// on the QR screens when the configuration enables it. customerName is
// optional; an empty language defaults to Lithuanian.
func (c *Client) SendAppLink(ctx context.Context, phone string, shopID int, customerName, language string) error {
	if language == "" {
		language = "lt"
	}
	req := sendAppLinkRequest{
		Phone:        phone,
		ShopID:       shopID,
		CustomerName: customerName,
		Language:     language,
	}
	return c.rc.Request(ctx, http.MethodPost, "/shop/auth/send-app-link", req, nil)
}

// Categories lists the category names offers and shops are tagged with.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	categories := []string{}
	if err := c.rc.Request(ctx, http.MethodGet, "/shop/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
