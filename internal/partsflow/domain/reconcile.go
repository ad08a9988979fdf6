package domain

import (
	"encoding/json"
	"strings"

	"fieldparts_backend/internal/catalog"
	"fieldparts_backend/internal/marketplace"
)

// ReconcileResult summarizes a reconciliation pass for logging.
type ReconcileResult struct {
	Imported  int
	Matched   int
	Fallback  int
	Synthetic int
}

// Reconcile imports a previously persisted parts list into the ledger,
// matching each record back to a catalog rate. Runs once per workflow entry,
// after catalog and brands have loaded; the one-shot guard lives in the
// session, not here.
//
// Match order per record: rate id in the catalog, then exact
// description+unitPrice across all groups, then a synthetic entry built from
// the record itself. Every record produces exactly one ledger entry — nothing
// is dropped on an ambiguous match.
func Reconcile(ledger *Ledger, snap catalog.Snapshot, items []ServiceItem, persisted []marketplace.PersistedPartPayload) ReconcileResult {
	var result ReconcileResult

	itemNames := make(map[string]string, len(items))
	for _, item := range items {
		itemNames[item.ID] = item.Name
	}

	for _, record := range persisted {
		part := SelectedPart{
			ServiceItemID:   record.ServiceItemID,
			ServiceItemName: itemNames[record.ServiceItemID],
			IsExisting:      true,
		}

		if rate, groupTitle, ok := snap.FindRate(record.RateID); ok && record.RateID != "" {
			part.RateID = rate.ID
			part.Description = rate.Description
			part.UnitPrice = rate.UnitPrice
			part.GroupTitle = groupTitle
			result.Matched++
		} else if rate, groupTitle, ok := matchByDescriptionAndPrice(snap, record); ok {
			part.RateID = rate.ID
			part.Description = rate.Description
			part.UnitPrice = rate.UnitPrice
			part.GroupTitle = groupTitle
			result.Fallback++
		} else {
			// No catalog match; keep the record at face value under its own
			// id so the part is still represented and editable.
			part.RateID = record.ID
			part.Description = record.Description
			part.UnitPrice = record.UnitPrice
			part.GroupTitle = record.GroupTitle
			result.Synthetic++
		}

		if choice, ok := resolveBrandRef(record.Brand, snap); ok {
			part.BrandID = choice.ID
			part.BrandName = choice.Name
		}

		ledger.Insert(part, record.Quantity)
		result.Imported++
	}

	return result
}

// matchByDescriptionAndPrice scans all rates for an exact description and
// unit price match. Exact only; two distinct rates sharing both fields is a
// known limitation of this heuristic, not a guarantee it resolves.
func matchByDescriptionAndPrice(snap catalog.Snapshot, record marketplace.PersistedPartPayload) (catalog.Rate, string, bool) {
	description := strings.TrimSpace(record.Description)
	for _, group := range snap.Groups {
		for _, rate := range group.Rates {
			if strings.TrimSpace(rate.Description) == description && rate.UnitPrice == record.UnitPrice {
				return rate, group.Title, true
			}
		}
	}
	return catalog.Rate{}, "", false
}

// brandObject is the embedded form of a persisted brand reference.
type brandObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// resolveBrandRef extracts a brand choice from a persisted record's brand
// reference: embedded {id,name} objects are taken directly; bare id strings
// are looked up in the loaded brand list. An unresolved name (brand deleted
// since) is tolerated, not an error.
func resolveBrandRef(raw json.RawMessage, snap catalog.Snapshot) (BrandChoice, bool) {
	if len(raw) == 0 {
		return BrandChoice{}, false
	}

	var obj brandObject
	if err := json.Unmarshal(raw, &obj); err == nil && obj.ID != "" {
		return BrandChoice{ID: obj.ID, Name: obj.Name}, true
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil && id != "" {
		choice := BrandChoice{ID: id}
		if brand, ok := snap.FindBrand(id); ok {
			choice.Name = brand.Name
		}
		return choice, true
	}

	return BrandChoice{}, false
}
