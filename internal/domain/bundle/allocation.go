package bundle

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AllocationItem is one weighted line in a discount allocation. Weight is
// UnitPrice * Quantity, the line's pre-discount extended total.
type AllocationItem struct {
	UnitPrice int64
	Quantity  int64
}

// Weight returns the pre-discount extended total of the line
func (i AllocationItem) Weight() int64 {
	return i.UnitPrice * i.Quantity
}

// Allocation is the per-line outcome of distributing a group discount
type Allocation struct {
	// Discount is the share of the group discount reflected on this line,
	// in minor units
	Discount int64
	// NewExtendedTotal is the line's extended total after the discount
	NewExtendedTotal int64
	// NewUnitPrice is NewExtendedTotal divided across the quantity, rounded
	// half away from zero and clamped at zero
	NewUnitPrice int64
}

// AllocateProportional distributes totalDiscount across the given lines in
// proportion to their weights using the largest-remainder method, so that
// the per-line discounts sum to totalDiscount exactly.
//
// Exact fractional shares are computed in decimal, floored, and the leftover
// minor units handed to the lines with the largest remainders; equal
// remainders are broken by original index, ascending. The result depends
// only on the input order and weights, which makes repeated runs reproduce
// the same vector.
//
// A totalDiscount larger than the combined weight is capped at the combined
// weight; prices never go negative.
func AllocateProportional(items []AllocationItem, totalDiscount int64) []Allocation {
	allocations := make([]Allocation, len(items))
	var totalWeight int64
	for i, item := range items {
		w := item.Weight()
		totalWeight += w
		allocations[i] = Allocation{
			Discount:         0,
			NewExtendedTotal: w,
			NewUnitPrice:     item.UnitPrice,
		}
	}

	if totalDiscount <= 0 || totalWeight <= 0 {
		return allocations
	}
	if totalDiscount > totalWeight {
		totalDiscount = totalWeight
	}

	totalWeightDec := decimal.NewFromInt(totalWeight)
	totalDiscountDec := decimal.NewFromInt(totalDiscount)

	type share struct {
		index     int
		floor     int64
		remainder decimal.Decimal
	}

	shares := make([]share, len(items))
	var floorSum int64
	for i, item := range items {
		exact := decimal.NewFromInt(item.Weight()).Div(totalWeightDec).Mul(totalDiscountDec)
		floor := exact.Floor()
		shares[i] = share{
			index:     i,
			floor:     floor.IntPart(),
			remainder: exact.Sub(floor),
		}
		floorSum += shares[i].floor
	}

	leftover := totalDiscount - floorSum

	ranked := make([]share, len(shares))
	copy(ranked, shares)
	sort.SliceStable(ranked, func(a, b int) bool {
		cmp := ranked[a].remainder.Cmp(ranked[b].remainder)
		if cmp != 0 {
			return cmp > 0
		}
		return ranked[a].index < ranked[b].index
	})

	discounts := make([]int64, len(items))
	for _, s := range shares {
		discounts[s.index] = s.floor
	}
	for i := int64(0); i < leftover && i < int64(len(ranked)); i++ {
		discounts[ranked[i].index]++
	}

	var extendedSum int64
	for i, item := range items {
		newExtended := item.Weight() - discounts[i]
		if newExtended < 0 {
			newExtended = 0
		}
		allocations[i] = Allocation{
			Discount:         discounts[i],
			NewExtendedTotal: newExtended,
			NewUnitPrice:     roundedUnitPrice(newExtended, item.Quantity),
		}
		extendedSum += newExtended
	}

	// Verification: the extended totals must land exactly on the authorized
	// outcome. Shares never exceed their line's weight, so this only drifts
	// if a clamp fired; any residual is folded into the first line.
	target := totalWeight - totalDiscount
	if residual := target - extendedSum; residual != 0 && len(allocations) > 0 {
		anchor := &allocations[0]
		anchor.NewExtendedTotal += residual
		if anchor.NewExtendedTotal < 0 {
			anchor.NewExtendedTotal = 0
		}
		anchor.Discount = items[0].Weight() - anchor.NewExtendedTotal
		anchor.NewUnitPrice = roundedUnitPrice(anchor.NewExtendedTotal, items[0].Quantity)
	}

	return allocations
}

// roundedUnitPrice divides an extended total by quantity, rounding half away
// from zero, and clamps at zero
func roundedUnitPrice(extended, quantity int64) int64 {
	if quantity <= 0 {
		return 0
	}
	if extended <= 0 {
		return 0
	}
	return (extended*2 + quantity) / (quantity * 2)
}
