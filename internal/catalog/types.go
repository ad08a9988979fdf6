// Package catalog holds the immutable parts catalog snapshot a workflow
// session operates on: rate groups fetched for the booking's service category
// and the brand list that decides whether brand gating applies.
package catalog

import "fieldparts_backend/internal/marketplace"

// Rate is a catalog-priced, purchasable part line.
type Rate struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	// UnitPrice is the authoritative price used in all totals.
	UnitPrice float64 `json:"unitPrice"`
	// Legacy display-only fields; never used in totals.
	Price         *float64 `json:"price,omitempty"`
	LabourCharge  *float64 `json:"labourCharge,omitempty"`
	DiscountPrice *float64 `json:"discountPrice,omitempty"`
}

// RateGroup is a named bucket of rates, ordered as the marketplace returns them.
type RateGroup struct {
	Title string `json:"title"`
	Rates []Rate `json:"rates"`
}

// Brand identifies a part brand.
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is the catalog state loaded once per workflow entry. Read-only
// after load; a failed load leaves an empty snapshot and the workflow in a
// degraded add-disabled state.
type Snapshot struct {
	Groups []RateGroup `json:"groups"`
	Brands []Brand     `json:"brands"`
}

// BrandRequired reports whether the brand-gating policy applies: any
// non-empty brand list makes a brand mandatory for every selected part.
func (s Snapshot) BrandRequired() bool {
	return len(s.Brands) > 0
}

// FindRate looks a rate up by id across all groups, returning the rate and
// the title of the group that owns it.
func (s Snapshot) FindRate(rateID string) (Rate, string, bool) {
	for _, group := range s.Groups {
		for _, rate := range group.Rates {
			if rate.ID == rateID {
				return rate, group.Title, true
			}
		}
	}
	return Rate{}, "", false
}

// FindBrand looks a brand up by id.
func (s Snapshot) FindBrand(brandID string) (Brand, bool) {
	for _, brand := range s.Brands {
		if brand.ID == brandID {
			return brand, true
		}
	}
	return Brand{}, false
}

// NormalizeGroups converts marketplace wire payloads into the domain shape.
// Negative unit prices violate the catalog invariant and are clamped to zero.
func NormalizeGroups(payloads []marketplace.RateGroupPayload) []RateGroup {
	groups := make([]RateGroup, 0, len(payloads))
	for _, gp := range payloads {
		group := RateGroup{Title: gp.Title, Rates: make([]Rate, 0, len(gp.Rates))}
		for _, rp := range gp.Rates {
			unitPrice := rp.UnitPrice
			if unitPrice < 0 {
				unitPrice = 0
			}
			group.Rates = append(group.Rates, Rate{
				ID:            rp.ID,
				Description:   rp.Description,
				UnitPrice:     unitPrice,
				Price:         rp.Price,
				LabourCharge:  rp.LabourCharge,
				DiscountPrice: rp.DiscountPrice,
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// NormalizeBrands converts marketplace brand payloads into the domain shape.
func NormalizeBrands(payloads []marketplace.BrandPayload) []Brand {
	brands := make([]Brand, 0, len(payloads))
	for _, bp := range payloads {
		brands = append(brands, Brand{ID: bp.ID, Name: bp.Name})
	}
	return brands
}
