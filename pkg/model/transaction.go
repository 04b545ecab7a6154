package model

import "time"

// TransactionType describes how a points transaction changed the balance.
type TransactionType string

const (
	TransactionEarned   TransactionType = "earned"
	TransactionRedeemed TransactionType = "redeemed"
	TransactionExpired  TransactionType = "expired"
	TransactionAdjusted TransactionType = "adjusted"
)

// PointsTransaction is a single points booking on a loyalty card.
type PointsTransaction struct {
	ID            int             `json:"id" db:"id"`
	LoyaltyCardID int             `json:"loyalty_card_id" db:"loyalty_card_id"`
	Points        int             `json:"points" db:"points"`
	Type          TransactionType `json:"type" db:"type"`
	Amount        float64         `json:"amount,omitempty" db:"amount"`
	Description   string          `json:"description,omitempty" db:"description"`
	ReferenceID   string          `json:"reference_id,omitempty" db:"reference_id"`
	ShopID        int             `json:"shop_id,omitempty" db:"shop_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
