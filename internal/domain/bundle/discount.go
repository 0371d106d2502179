package bundle

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DiscountKind discriminates the result of the tier calculator
type DiscountKind string

const (
	DiscountNone       DiscountKind = "none"
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Discount is the outcome of applying a bundle's tier configuration to a
// selected unit count. Rate is a fraction in [0,1] for percentage discounts;
// Amount is minor units for fixed discounts.
type Discount struct {
	Kind        DiscountKind
	Rate        decimal.Decimal
	Amount      int64
	Description string
}

// IsNone returns true when no discount applies
func (d Discount) IsNone() bool {
	return d.Kind == DiscountNone
}

// NoDiscount is the zero result of the calculator
func NoDiscount() Discount {
	return Discount{Kind: DiscountNone, Description: "No bundle discount"}
}

var oneHundred = decimal.NewFromInt(100)

// ComputeTierDiscount maps a bundle group's total unit count and the bundle's
// discount configuration to the applicable discount. It is a pure function
// and never fails: a single unit, an empty config, or zero tier values all
// yield DiscountNone.
//
// A fixed amount configured for the matching tier takes precedence over a
// percentage configured for the same tier, whatever else is set. Merchants
// rely on this when both fields are populated, so the precedence is an
// explicit policy here rather than an accident of evaluation order.
func ComputeTierDiscount(itemCount int64, cfg DiscountConfig) Discount {
	if itemCount <= 1 || cfg.IsZero() {
		return NoDiscount()
	}

	amount := cfg.AmountTier2
	percent := cfg.PercentTier2
	if itemCount >= 3 {
		amount = cfg.AmountTier3
		percent = cfg.PercentTier3
	}

	if amount > 0 {
		return Discount{
			Kind:        DiscountFixed,
			Amount:      amount,
			Description: fmt.Sprintf("Bundle discount: %d minor units off for %d items", amount, itemCount),
		}
	}

	if percent.IsPositive() {
		rate := percent.Div(oneHundred)
		if rate.GreaterThan(decimal.NewFromInt(1)) {
			rate = decimal.NewFromInt(1)
		}
		return Discount{
			Kind:        DiscountPercentage,
			Rate:        rate,
			Description: fmt.Sprintf("Bundle discount: %s%% off for %d items", percent.String(), itemCount),
		}
	}

	return NoDiscount()
}

// TotalFor resolves the discount to an absolute amount of minor units for a
// bundle group whose pre-discount extended total is groupTotal. The result
// is never negative and never exceeds groupTotal.
func (d Discount) TotalFor(groupTotal int64) int64 {
	if groupTotal <= 0 {
		return 0
	}

	var total int64
	switch d.Kind {
	case DiscountPercentage:
		total = decimal.NewFromInt(groupTotal).Mul(d.Rate).Round(0).IntPart()
	case DiscountFixed:
		total = d.Amount
	default:
		return 0
	}

	if total < 0 {
		return 0
	}
	if total > groupTotal {
		return groupTotal
	}
	return total
}
