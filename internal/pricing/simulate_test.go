package pricing

import "testing"

func TestSimulateProductScope(t *testing.T) {
	coupon := Coupon{Code: "MILK10", PercentBps: 1000, Scope: ScopeProduct, Active: true}
	sim := Simulate(5000, 3, coupon, nil)
	if sim.DiscountSingle != 500 {
		t.Fatalf("expected per-unit discount 500, got %d", sim.DiscountSingle)
	}
	if sim.FinalSingle != 4500 {
		t.Fatalf("expected per-unit final 4500, got %d", sim.FinalSingle)
	}
	if sim.TotalBefore != 15000 || sim.TotalDiscount != 1500 || sim.TotalAfter != 13500 {
		t.Fatalf("unexpected totals: %+v", sim)
	}
	if sim.Profit != nil {
		t.Fatal("profit breakdown requires a unit cost")
	}
}

func TestSimulateCartScope(t *testing.T) {
	coupon := Coupon{Code: "CART5", PercentBps: 500, Scope: ScopeCart, Active: true}
	sim := Simulate(5000, 2, coupon, nil)
	if sim.TotalBefore != 10000 {
		t.Fatalf("expected total before 10000, got %d", sim.TotalBefore)
	}
	if sim.TotalDiscount != 500 {
		t.Fatalf("expected total discount 500, got %d", sim.TotalDiscount)
	}
	if sim.TotalAfter != 9500 {
		t.Fatalf("expected total after 9500, got %d", sim.TotalAfter)
	}
}

func TestSimulateProfit(t *testing.T) {
	coupon := Coupon{Code: "MILK10", PercentBps: 1000, Scope: ScopeProduct, Active: true}
	cost := Money(3000)
	sim := Simulate(5000, 3, coupon, &cost)
	if sim.Profit == nil {
		t.Fatal("expected profit breakdown")
	}
	if sim.Profit.PerUnitBefore != 2000 {
		t.Fatalf("expected per-unit profit 2000, got %d", sim.Profit.PerUnitBefore)
	}
	if sim.Profit.TotalBefore != 6000 {
		t.Fatalf("expected total profit before 6000, got %d", sim.Profit.TotalBefore)
	}
	if sim.Profit.TotalAfter != 4500 {
		t.Fatalf("expected total profit after 4500, got %d", sim.Profit.TotalAfter)
	}
	if sim.Profit.MarginBefore != 40 {
		t.Fatalf("expected margin before 40%%, got %v", sim.Profit.MarginBefore)
	}
}

func TestSimulateZeroPriceMargins(t *testing.T) {
	coupon := Coupon{Code: "X", PercentBps: 1000, Scope: ScopeProduct, Active: true}
	cost := Money(0)
	sim := Simulate(0, 2, coupon, &cost)
	if sim.Profit == nil {
		t.Fatal("expected profit breakdown")
	}
	if sim.Profit.MarginBefore != 0 || sim.Profit.MarginAfter != 0 {
		t.Fatalf("margins must be 0 when the price is 0, got %v / %v", sim.Profit.MarginBefore, sim.Profit.MarginAfter)
	}
}
