package domain

import "testing"

func TestComputeTotals(t *testing.T) {
	ledger := NewLedger()
	ledger.Insert(SelectedPart{RateID: "r1", Description: "HEPA Filter", UnitPrice: 250, ServiceItemID: "si9"}, 3)
	ledger.Insert(SelectedPart{RateID: "r2", Description: "Gas Top-up", UnitPrice: 90.50, ServiceItemID: "si10"}, 2)

	totals := ComputeTotals(ledger, 1200)
	if totals.PartsAmount != 931 {
		t.Fatalf("expected parts amount 931, got %v", totals.PartsAmount)
	}
	if totals.GrandTotal != 2131 {
		t.Fatalf("expected grand total 2131, got %v", totals.GrandTotal)
	}
	if totals.OriginalServiceAmount != 1200 {
		t.Fatalf("original service amount must pass through untouched, got %v", totals.OriginalServiceAmount)
	}
}

func TestComputeTotalsEmptyLedger(t *testing.T) {
	totals := ComputeTotals(NewLedger(), 499.99)
	if totals.PartsAmount != 0 {
		t.Fatalf("empty ledger must yield zero parts amount, got %v", totals.PartsAmount)
	}
	if totals.GrandTotal != 499.99 {
		t.Fatalf("grand total must equal the original amount, got %v", totals.GrandTotal)
	}
}

func TestComputeTotalsNilLedger(t *testing.T) {
	totals := ComputeTotals(nil, 100)
	if totals.PartsAmount != 0 || totals.GrandTotal != 100 {
		t.Fatalf("nil ledger must behave like empty, got %+v", totals)
	}
}

func TestComputeTotalsRounding(t *testing.T) {
	ledger := NewLedger()
	// 3 * 33.335 = 100.005 accumulates float error without rounding.
	ledger.Insert(SelectedPart{RateID: "r1", UnitPrice: 33.335, ServiceItemID: "si1"}, 3)

	totals := ComputeTotals(ledger, 0.10)
	if totals.PartsAmount != 100.01 {
		t.Fatalf("expected rounded parts amount 100.01, got %v", totals.PartsAmount)
	}
	if totals.GrandTotal != 100.11 {
		t.Fatalf("expected rounded grand total 100.11, got %v", totals.GrandTotal)
	}
}

func TestServiceItemSubtotal(t *testing.T) {
	ledger := NewLedger()
	ledger.Insert(SelectedPart{RateID: "r1", UnitPrice: 250, ServiceItemID: "si9"}, 3)
	ledger.Insert(SelectedPart{RateID: "r2", UnitPrice: 100, ServiceItemID: "si9"}, 1)
	ledger.Insert(SelectedPart{RateID: "r3", UnitPrice: 999, ServiceItemID: "si10"}, 1)

	if got := ServiceItemSubtotal(ledger, "si9"); got != 850 {
		t.Fatalf("expected subtotal 850 for si9, got %v", got)
	}
	if got := ServiceItemSubtotal(ledger, "si10"); got != 999 {
		t.Fatalf("expected subtotal 999 for si10, got %v", got)
	}
	if got := ServiceItemSubtotal(ledger, "si-none"); got != 0 {
		t.Fatalf("expected zero subtotal for item without parts, got %v", got)
	}
}

func TestLineTotal(t *testing.T) {
	part := SelectedPart{RateID: "r1", UnitPrice: 250, ServiceItemID: "si9"}
	if got := LineTotal(part, 3); got != 750 {
		t.Fatalf("expected line total 750, got %v", got)
	}
}

func TestTotalsFollowLedgerMutations(t *testing.T) {
	ledger := NewLedger()
	rate := testRate
	if _, err := ledger.Select(rate, testItem, "Filters", false, false); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if got := ComputeTotals(ledger, 1200).GrandTotal; got != 1450 {
		t.Fatalf("after select: expected 1450, got %v", got)
	}

	if err := ledger.SetQuantity("r1_si9", 3); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if got := ComputeTotals(ledger, 1200).GrandTotal; got != 1950 {
		t.Fatalf("after quantity change: expected 1950, got %v", got)
	}

	ledger.Remove("r1_si9")
	if got := ComputeTotals(ledger, 1200).GrandTotal; got != 1200 {
		t.Fatalf("after removal: expected 1200, got %v", got)
	}
}
