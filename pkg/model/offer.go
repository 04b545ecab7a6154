package model

import "time"

// OfferType enumerates the supported offer mechanics.
type OfferType string

const (
	OfferDiscountPercentage OfferType = "discount_percentage"
	OfferDiscountAmount     OfferType = "discount_amount"
	OfferPointsMultiplier   OfferType = "points_multiplier"
	OfferFreeItem           OfferType = "free_item"
	OfferCashback           OfferType = "cashback"
)

// Offer is a partner promotion.
type Offer struct {
	ID                 int        `json:"id" db:"id"`
	Title              string     `json:"title" db:"title"`
	Description        string     `json:"description,omitempty" db:"description"`
	Type               OfferType  `json:"type" db:"type"`
	DiscountPercentage float64    `json:"discount_percentage,omitempty" db:"discount_percentage"`
	DiscountAmount     float64    `json:"discount_amount,omitempty" db:"discount_amount"`
	PointsRequired     int        `json:"points_required,omitempty" db:"points_required"`
	PointsEarned       int        `json:"points_earned,omitempty" db:"points_earned"`
	PromoCode          string     `json:"promo_code,omitempty" db:"promo_code"`
	StartsAt           *time.Time `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt             *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	IsFeatured         bool       `json:"is_featured" db:"is_featured"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}
