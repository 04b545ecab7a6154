package model

// PointsRules describes the exchange rate and limits for earning points and
// for converting points into a currency discount. The redemption rates fall
// back to the earning rates when they are not configured.
type PointsRules struct {
	PointsPerCurrency float64 `json:"points_per_currency"`
	CurrencyAmount    float64 `json:"currency_amount"`

	RedemptionEnabled           *bool   `json:"points_redemption_enabled,omitempty"`
	PointsPerCurrencyRedemption float64 `json:"points_per_currency_redemption,omitempty"`
	CurrencyAmountRedemption    float64 `json:"currency_amount_redemption,omitempty"`
	MinPointsForRedemption      int     `json:"min_points_for_redemption,omitempty"`
	MaxPointsPerRedemption      int     `json:"max_points_per_redemption,omitempty"`
}

// RedemptionDisabled reports whether the rules explicitly switch redemption
// off. Absent means enabled.
func (r *PointsRules) RedemptionDisabled() bool {
	return r != nil && r.RedemptionEnabled != nil && !*r.RedemptionEnabled
}

// RedemptionRates returns the points-to-currency rates used for redemption,
// falling back to the earning rates.
func (r *PointsRules) RedemptionRates() (pointsPerCurrency, currencyAmount float64) {
	pointsPerCurrency = r.PointsPerCurrencyRedemption
	if pointsPerCurrency <= 0 {
		pointsPerCurrency = r.PointsPerCurrency
	}
	currencyAmount = r.CurrencyAmountRedemption
	if currencyAmount <= 0 {
		currencyAmount = r.CurrencyAmount
	}
	return pointsPerCurrency, currencyAmount
}

// PointsBalance summarizes the points of one loyalty card.
type PointsBalance struct {
	TotalPoints       int `json:"total_points"`
	AvailablePoints   int `json:"available_points"`
	ExpiringSoon      int `json:"expiring_soon"`
	ExpiredPoints     int `json:"expired_points"`
	TransactionsCount int `json:"transactions_count"`
}
