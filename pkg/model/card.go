package model

import "time"

// LoyaltyCard is a customer card issued by the platform or imported from a
// third party program.
type LoyaltyCard struct {
	ID            int        `json:"id" db:"id"`
	UserID        int        `json:"user_id" db:"user_id"`
	CardNumber    string     `json:"card_number" db:"card_number"`
	CardType      string     `json:"card_type" db:"card_type"`
	BrandName     string     `json:"brand_name" db:"brand_name"`
	PointsBalance int        `json:"points_balance" db:"points_balance"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	IsThirdParty  bool       `json:"is_third_party" db:"is_third_party"`
	QRCode        string     `json:"qr_code,omitempty" db:"qr_code"`
	Barcode       string     `json:"barcode,omitempty" db:"barcode"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// User is the card holder as exposed to partner integrations.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
