package domain

import "math"

// Totals is the derived amount view of a ledger. Always recomputed from the
// ledger on demand, never cached independently, so it cannot drift.
type Totals struct {
	// OriginalServiceAmount is the booking's payable amount at workflow
	// entry; this subsystem never mutates it.
	OriginalServiceAmount float64 `json:"originalServiceAmount"`
	PartsAmount           float64 `json:"partsAmount"`
	GrandTotal            float64 `json:"grandTotal"`
}

// ComputeTotals derives the parts subtotal and grand total from the ledger.
func ComputeTotals(ledger *Ledger, originalServiceAmount float64) Totals {
	partsAmount := sumParts(ledger, "")
	return Totals{
		OriginalServiceAmount: originalServiceAmount,
		PartsAmount:           partsAmount,
		GrandTotal:            round2(originalServiceAmount + partsAmount),
	}
}

// ServiceItemSubtotal derives the parts subtotal for a single service item.
func ServiceItemSubtotal(ledger *Ledger, serviceItemID string) float64 {
	return sumParts(ledger, serviceItemID)
}

// LineTotal returns unit price times quantity for one ledger entry.
func LineTotal(part SelectedPart, quantity int) float64 {
	return round2(part.UnitPrice * float64(quantity))
}

func sumParts(ledger *Ledger, serviceItemID string) float64 {
	if ledger == nil {
		return 0
	}
	total := 0.0
	for key, part := range ledger.Parts {
		if serviceItemID != "" && part.ServiceItemID != serviceItemID {
			continue
		}
		total += part.UnitPrice * float64(ledger.Quantities[key])
	}
	return round2(total)
}

// round2 rounds to two decimal places to keep float accumulation off the wire.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
