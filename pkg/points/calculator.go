// Package points converts between currency amounts and loyalty points and
// validates redemption requests against the partner's points rules. All
// functions are pure; absent or disabled rules yield zero values.
package points

import (
	"fmt"
	"math"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
)

// AmountFromPoints returns the currency discount the given points are worth.
func AmountFromPoints(points int, rules *model.PointsRules) float64 {
	if rules == nil || points <= 0 || rules.RedemptionDisabled() {
		return 0
	}

	pointsPerCurrency, currencyAmount := rules.RedemptionRates()
	if pointsPerCurrency <= 0 || currencyAmount <= 0 {
		return 0
	}

	amount := (float64(points) / pointsPerCurrency) * currencyAmount
	return round2(amount)
}

// PointsFromAmount returns the points earned by a purchase amount, rounded
// down to whole points.
func PointsFromAmount(amount float64, rules *model.PointsRules) int {
	if rules == nil || amount <= 0 {
		return 0
	}

	if rules.PointsPerCurrency <= 0 || rules.CurrencyAmount <= 0 {
		return 0
	}

	return int(math.Floor((amount / rules.CurrencyAmount) * rules.PointsPerCurrency))
}

// ValidationResult carries the outcome of a redemption check.
type ValidationResult struct {
	Valid bool
	Error string
}

// ValidateRedemption checks whether the requested points can be redeemed.
// The checks run in a fixed order so the reported error is deterministic.
func ValidateRedemption(points, availablePoints int, rules *model.PointsRules) ValidationResult {
	if rules == nil {
		return ValidationResult{Error: "points rules not configured"}
	}

	if rules.RedemptionDisabled() {
		return ValidationResult{Error: "points redemption is not enabled"}
	}

	if points <= 0 {
		return ValidationResult{Error: "points must be greater than 0"}
	}

	if points > availablePoints {
		return ValidationResult{Error: "insufficient points balance"}
	}

	if points < rules.MinPointsForRedemption {
		return ValidationResult{Error: fmt.Sprintf("minimum %d points required for redemption", rules.MinPointsForRedemption)}
	}

	if rules.MaxPointsPerRedemption > 0 && points > rules.MaxPointsPerRedemption {
		return ValidationResult{Error: fmt.Sprintf("maximum %d points allowed per redemption", rules.MaxPointsPerRedemption)}
	}

	return ValidationResult{Valid: true}
}

// FinalAmount returns the amount left to pay after redeeming points.
func FinalAmount(originalAmount float64, pointsToRedeem int, rules *model.PointsRules) float64 {
	if originalAmount <= 0 {
		return 0
	}

	discount := AmountFromPoints(pointsToRedeem, rules)
	return round2(math.Max(0, originalAmount-discount))
}

// MaxRedeemablePoints returns the largest number of points that may be
// redeemed against the given amount: the points needed to cover the amount
// in full, capped by the available balance and the configured maximum.
func MaxRedeemablePoints(amount float64, availablePoints int, rules *model.PointsRules) int {
	if rules == nil || amount <= 0 || availablePoints <= 0 || rules.RedemptionDisabled() {
		return 0
	}

	pointsPerCurrency, currencyAmount := rules.RedemptionRates()
	if pointsPerCurrency <= 0 || currencyAmount <= 0 {
		return 0
	}

	maxPoints := int(math.Ceil((amount / currencyAmount) * pointsPerCurrency))
	if availablePoints < maxPoints {
		maxPoints = availablePoints
	}
	if rules.MaxPointsPerRedemption > 0 && maxPoints > rules.MaxPointsPerRedemption {
		maxPoints = rules.MaxPointsPerRedemption
	}

	return maxPoints
}

// round2 rounds half away from zero at the cent.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
