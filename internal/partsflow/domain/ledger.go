package domain

import "fieldparts_backend/internal/catalog"

// ServiceItem is one line of the booking being serviced. Read-only; sourced
// from the booking detail at workflow entry.
type ServiceItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

// BrandChoice is a resolved brand assignment for a selection key.
type BrandChoice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SelectedPart is one ledger entry: a catalog rate attached to a service item.
type SelectedPart struct {
	RateID          string  `json:"rateId"`
	Description     string  `json:"description"`
	UnitPrice       float64 `json:"unitPrice"`
	ServiceItemID   string  `json:"serviceItemId"`
	ServiceItemName string  `json:"serviceItemName"`
	GroupTitle      string  `json:"groupTitle"`
	BrandID         string  `json:"brandId,omitempty"`
	BrandName       string  `json:"brandName,omitempty"`
	// IsExisting marks entries reconciled from a prior submission rather than
	// newly added this session.
	IsExisting bool `json:"isExisting"`
}

// HasBrand reports whether a brand has been attached to this part.
func (p SelectedPart) HasBrand() bool {
	return p.BrandID != ""
}

// Key returns the part's selection key.
func (p SelectedPart) Key() string {
	return SelectionKeyFor(p.RateID, p.ServiceItemID)
}

// Ledger is the authoritative in-memory state of what will be submitted:
// selected parts, their quantities and their brand choices, all keyed by
// selection key. The three maps are mutated together; a key present in one
// and absent in another is a defect. Quantities are always >= 1.
//
// Exported fields because the ledger rides inside the JSON-marshaled workflow
// session; it is never persisted anywhere durable.
type Ledger struct {
	Parts      map[string]SelectedPart `json:"parts"`
	Quantities map[string]int          `json:"quantities"`
	Brands     map[string]BrandChoice  `json:"brands"`
	// PendingBrands buffers brand assignments made before the part exists
	// (brand-gated selection, reconciliation). Consumed on insert.
	PendingBrands map[string]BrandChoice `json:"pendingBrands,omitempty"`
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		Parts:         make(map[string]SelectedPart),
		Quantities:    make(map[string]int),
		Brands:        make(map[string]BrandChoice),
		PendingBrands: make(map[string]BrandChoice),
	}
}

// init backfills nil maps after JSON round-trips.
func (l *Ledger) init() {
	if l.Parts == nil {
		l.Parts = make(map[string]SelectedPart)
	}
	if l.Quantities == nil {
		l.Quantities = make(map[string]int)
	}
	if l.Brands == nil {
		l.Brands = make(map[string]BrandChoice)
	}
	if l.PendingBrands == nil {
		l.PendingBrands = make(map[string]BrandChoice)
	}
}

// Select attaches a rate to a service item, creating the entry with quantity 1.
//
// If the key already exists the ledger is untouched and ErrAlreadySelected is
// returned so the caller can surface the quantity editor instead. If
// brandRequired is true and neither a chosen nor a buffered brand is available
// for the key, ErrBrandRequired is returned and nothing is mutated; the caller
// resolves the brand choice and re-invokes with brandChosen=true after calling
// SetBrand, which buffers the choice. Brand attachment and part creation then
// land in the same mutation — a brandless part is never observable when the
// gate applies.
func (l *Ledger) Select(rate catalog.Rate, item ServiceItem, groupTitle string, brandRequired, brandChosen bool) (SelectedPart, error) {
	l.init()
	key := SelectionKeyFor(rate.ID, item.ID)

	if existing, ok := l.Parts[key]; ok {
		return existing, ErrAlreadySelected
	}

	_, buffered := l.PendingBrands[key]
	if brandRequired && !brandChosen && !buffered {
		return SelectedPart{}, ErrBrandRequired
	}

	part := SelectedPart{
		RateID:          rate.ID,
		Description:     rate.Description,
		UnitPrice:       rate.UnitPrice,
		ServiceItemID:   item.ID,
		ServiceItemName: item.Name,
		GroupTitle:      groupTitle,
	}
	l.insert(part, 1)
	return l.Parts[key], nil
}

// Insert places a fully formed part into the ledger with the given quantity,
// consuming any buffered brand. Used by the reconciler and by quantity-editor
// initiated creation. Quantities below 1 default to 1.
func (l *Ledger) Insert(part SelectedPart, quantity int) SelectedPart {
	l.init()
	if quantity < 1 {
		quantity = 1
	}
	l.insert(part, quantity)
	return l.Parts[part.Key()]
}

func (l *Ledger) insert(part SelectedPart, quantity int) {
	key := part.Key()
	if choice, ok := l.PendingBrands[key]; ok {
		part.BrandID = choice.ID
		part.BrandName = choice.Name
		delete(l.PendingBrands, key)
	}
	l.Parts[key] = part
	l.Quantities[key] = quantity
	if part.BrandID != "" {
		l.Brands[key] = BrandChoice{ID: part.BrandID, Name: part.BrandName}
	}
}

// SetQuantity updates the quantity for an existing entry. Values below 1 are
// not a valid resting state and trigger removal; the destructive confirmation
// that guards that path belongs to the caller.
func (l *Ledger) SetQuantity(key string, quantity int) error {
	l.init()
	if _, ok := l.Parts[key]; !ok {
		return ErrNotSelected
	}
	if quantity < 1 {
		l.Remove(key)
		return nil
	}
	l.Quantities[key] = quantity
	return nil
}

// Quantity returns the quantity for a key, zero if absent.
func (l *Ledger) Quantity(key string) int {
	l.init()
	return l.Quantities[key]
}

// SetBrand attaches or overwrites the brand on an existing entry. If no entry
// exists yet the choice is buffered and consumed by the next insert for the
// same key.
func (l *Ledger) SetBrand(key string, choice BrandChoice) {
	l.init()
	part, ok := l.Parts[key]
	if !ok {
		l.PendingBrands[key] = choice
		return
	}
	part.BrandID = choice.ID
	part.BrandName = choice.Name
	l.Parts[key] = part
	l.Brands[key] = choice
}

// Remove deletes the entry from all maps in one step so no orphaned quantity
// or brand survives at a stale key.
func (l *Ledger) Remove(key string) {
	l.init()
	delete(l.Parts, key)
	delete(l.Quantities, key)
	delete(l.Brands, key)
	delete(l.PendingBrands, key)
}

// Has reports whether a key is selected.
func (l *Ledger) Has(key string) bool {
	l.init()
	_, ok := l.Parts[key]
	return ok
}

// Len returns the number of selected parts.
func (l *Ledger) Len() int {
	l.init()
	return len(l.Parts)
}

// MissingBrandCount counts selected parts without a brand. Nonzero blocks
// submission whenever the catalog declares brands.
func (l *Ledger) MissingBrandCount() int {
	l.init()
	count := 0
	for _, part := range l.Parts {
		if !part.HasBrand() {
			count++
		}
	}
	return count
}
