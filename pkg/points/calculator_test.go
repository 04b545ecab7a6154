package points

import (
	"testing"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
)

func boolPtr(v bool) *bool { return &v }

func basicRules() *model.PointsRules {
	return &model.PointsRules{
		PointsPerCurrency: 10,
		CurrencyAmount:    1,
	}
}

func TestAmountFromPoints(t *testing.T) {
	tests := []struct {
		name   string
		points int
		rules  *model.PointsRules
		want   float64
	}{
		{name: "basic rate", points: 50, rules: basicRules(), want: 5.00},
		{name: "nil rules", points: 50, rules: nil, want: 0},
		{name: "zero points", points: 0, rules: basicRules(), want: 0},
		{name: "negative points", points: -10, rules: basicRules(), want: 0},
		{
			name:   "redemption disabled",
			points: 50,
			rules: &model.PointsRules{
				PointsPerCurrency: 10,
				CurrencyAmount:    1,
				RedemptionEnabled: boolPtr(false),
			},
			want: 0,
		},
		{
			name:   "non-positive rate",
			points: 50,
			rules:  &model.PointsRules{PointsPerCurrency: 0, CurrencyAmount: 1},
			want:   0,
		},
		{
			name:   "redemption rate overrides earning rate",
			points: 100,
			rules: &model.PointsRules{
				PointsPerCurrency:           10,
				CurrencyAmount:              1,
				PointsPerCurrencyRedemption: 20,
				CurrencyAmountRedemption:    1,
			},
			want: 5.00,
		},
		{
			name:   "rounds to cents",
			points: 1,
			rules:  &model.PointsRules{PointsPerCurrency: 3, CurrencyAmount: 1},
			want:   0.33,
		},
	}

	for _, tc := range tests {
		if got := AmountFromPoints(tc.points, tc.rules); got != tc.want {
			t.Errorf("%s: AmountFromPoints(%d) = %v, want %v", tc.name, tc.points, got, tc.want)
		}
	}
}

func TestPointsFromAmount(t *testing.T) {
	rules := basicRules()

	if got := PointsFromAmount(12.34, rules); got != 123 {
		t.Errorf("PointsFromAmount(12.34) = %d, want 123", got)
	}
	if got := PointsFromAmount(0, rules); got != 0 {
		t.Errorf("PointsFromAmount(0) = %d, want 0", got)
	}
	if got := PointsFromAmount(10, nil); got != 0 {
		t.Errorf("PointsFromAmount with nil rules = %d, want 0", got)
	}
}

func TestConversionNeverOvershoots(t *testing.T) {
	rules := &model.PointsRules{PointsPerCurrency: 7, CurrencyAmount: 2}

	for _, amount := range []float64{0.01, 1, 2.5, 9.99, 100, 123.45} {
		pts := PointsFromAmount(amount, rules)
		back := AmountFromPoints(pts, rules)
		if back > amount {
			t.Errorf("amount %v: points %d convert back to %v, exceeds original", amount, pts, back)
		}
	}
}

func TestValidateRedemption(t *testing.T) {
	rules := &model.PointsRules{
		PointsPerCurrency:      10,
		CurrencyAmount:         1,
		MinPointsForRedemption: 10,
		MaxPointsPerRedemption: 500,
	}

	tests := []struct {
		name      string
		points    int
		available int
		rules     *model.PointsRules
		valid     bool
	}{
		{name: "ok", points: 100, available: 200, rules: rules, valid: true},
		{name: "nil rules", points: 100, available: 200, rules: nil},
		{name: "zero points", points: 0, available: 100, rules: rules},
		{name: "negative points", points: -5, available: 100, rules: rules},
		{name: "insufficient balance", points: 300, available: 200, rules: rules},
		{name: "below minimum", points: 5, available: 200, rules: rules},
		{name: "above maximum", points: 501, available: 1000, rules: rules},
		{
			name: "disabled", points: 100, available: 200,
			rules: &model.PointsRules{
				PointsPerCurrency: 10,
				CurrencyAmount:    1,
				RedemptionEnabled: boolPtr(false),
			},
		},
	}

	for _, tc := range tests {
		res := ValidateRedemption(tc.points, tc.available, tc.rules)
		if res.Valid != tc.valid {
			t.Errorf("%s: valid = %v, want %v (error %q)", tc.name, res.Valid, tc.valid, res.Error)
		}
		if !res.Valid && res.Error == "" {
			t.Errorf("%s: invalid result without error message", tc.name)
		}
	}
}

func TestValidateRedemptionCheckOrder(t *testing.T) {
	// Balance check must win over the minimum check.
	rules := &model.PointsRules{
		PointsPerCurrency:      10,
		CurrencyAmount:         1,
		MinPointsForRedemption: 50,
	}

	res := ValidateRedemption(40, 30, rules)
	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if res.Error != "insufficient points balance" {
		t.Errorf("unexpected error order: %q", res.Error)
	}
}

func TestFinalAmount(t *testing.T) {
	rules := basicRules()

	if got := FinalAmount(10, 50, rules); got != 5.00 {
		t.Errorf("FinalAmount(10, 50) = %v, want 5.00", got)
	}
	// Discount larger than the amount clamps to zero.
	if got := FinalAmount(3, 50, rules); got != 0 {
		t.Errorf("FinalAmount(3, 50) = %v, want 0", got)
	}
	if got := FinalAmount(0, 50, rules); got != 0 {
		t.Errorf("FinalAmount(0, 50) = %v, want 0", got)
	}
}

func TestMaxRedeemablePoints(t *testing.T) {
	rules := &model.PointsRules{
		PointsPerCurrency:      10,
		CurrencyAmount:         1,
		MaxPointsPerRedemption: 500,
	}

	// Covering 20.00 needs 200 points.
	if got := MaxRedeemablePoints(20, 1000, rules); got != 200 {
		t.Errorf("MaxRedeemablePoints(20, 1000) = %d, want 200", got)
	}
	// Capped by the available balance.
	if got := MaxRedeemablePoints(20, 150, rules); got != 150 {
		t.Errorf("MaxRedeemablePoints(20, 150) = %d, want 150", got)
	}
	// Capped by the configured maximum.
	if got := MaxRedeemablePoints(100, 10000, rules); got != 500 {
		t.Errorf("MaxRedeemablePoints(100, 10000) = %d, want 500", got)
	}
	if got := MaxRedeemablePoints(20, 0, rules); got != 0 {
		t.Errorf("MaxRedeemablePoints with empty balance = %d, want 0", got)
	}
	if got := MaxRedeemablePoints(20, 100, nil); got != 0 {
		t.Errorf("MaxRedeemablePoints with nil rules = %d, want 0", got)
	}
}

func TestMaxRedeemableNeverExceedsCaps(t *testing.T) {
	rules := &model.PointsRules{
		PointsPerCurrency:      13,
		CurrencyAmount:         2,
		MaxPointsPerRedemption: 350,
	}

	for _, amount := range []float64{0.5, 7, 42, 999} {
		for _, available := range []int{1, 100, 350, 5000} {
			got := MaxRedeemablePoints(amount, available, rules)
			if got > available {
				t.Errorf("amount %v available %d: result %d exceeds balance", amount, available, got)
			}
			if got > rules.MaxPointsPerRedemption {
				t.Errorf("amount %v available %d: result %d exceeds configured maximum", amount, available, got)
			}
		}
	}
}
