package pricing

// Simulation is the breakdown produced by the admin coupon calculator for an
// ad hoc unit price and quantity.
type Simulation struct {
	UnitPrice      Money
	Quantity       int
	DiscountSingle Money
	FinalSingle    Money
	TotalBefore    Money
	TotalDiscount  Money
	TotalAfter     Money
	Profit         *ProfitBreakdown
}

// ProfitBreakdown extends a simulation with margin figures when a unit cost
// is supplied. Margin percentages are defined as 0 when the corresponding
// price is 0.
type ProfitBreakdown struct {
	PerUnitBefore Money
	TotalBefore   Money
	TotalAfter    Money
	MarginBefore  float64
	MarginAfter   float64
}

// Simulate previews the impact of a coupon on a hypothetical line of qty
// units at unitPrice each. Product-scoped coupons discount each unit and
// multiply; any other scope discounts the whole simulated order. unitCost,
// when non-nil, enables the profit breakdown.
func Simulate(unitPrice Money, qty int, coupon Coupon, unitCost *Money) Simulation {
	if qty < 0 {
		qty = 0
	}
	discountSingle := unitPrice * Money(coupon.PercentBps) / 10000
	finalSingle := unitPrice - discountSingle
	totalBefore := unitPrice * Money(qty)

	sim := Simulation{
		UnitPrice:      unitPrice,
		Quantity:       qty,
		DiscountSingle: discountSingle,
		FinalSingle:    finalSingle,
		TotalBefore:    totalBefore,
	}
	if coupon.Scope == ScopeProduct {
		sim.TotalDiscount = discountSingle * Money(qty)
		sim.TotalAfter = finalSingle * Money(qty)
	} else {
		sim.TotalDiscount = totalBefore * Money(coupon.PercentBps) / 10000
		sim.TotalAfter = totalBefore - sim.TotalDiscount
	}

	if unitCost == nil || *unitCost < 0 {
		return sim
	}
	cost := *unitCost
	afterUnit := finalSingle
	if coupon.Scope != ScopeProduct && qty > 0 {
		afterUnit = unitPrice - sim.TotalDiscount/Money(qty)
	}
	profit := &ProfitBreakdown{
		PerUnitBefore: unitPrice - cost,
		TotalBefore:   (unitPrice - cost) * Money(qty),
		TotalAfter:    (afterUnit - cost) * Money(qty),
	}
	if unitPrice != 0 {
		profit.MarginBefore = float64(unitPrice-cost) / float64(unitPrice) * 100
	}
	if afterUnit != 0 {
		profit.MarginAfter = float64(afterUnit-cost) / float64(afterUnit) * 100
	}
	sim.Profit = profit
	return sim
}
