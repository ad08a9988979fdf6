// Package session holds the volatile state of one parts workflow: the catalog
// snapshot it operates on, the selection ledger and its derived interaction
// state. Sessions live in Redis under a TTL and die with the workflow; nothing
// here is durable.
package session

import (
	"time"

	"github.com/google/uuid"

	"fieldparts_backend/internal/catalog"
	"fieldparts_backend/internal/partsflow/domain"
)

// Session is the full state of one open parts workflow.
type Session struct {
	ID           string    `json:"id"`
	BookingID    string    `json:"bookingId"`
	TechnicianID uuid.UUID `json:"technicianId"`
	CreatedAt    time.Time `json:"createdAt"`

	// Catalog snapshot loaded at entry. CatalogAvailable is false when the
	// load failed; the workflow then runs degraded with adds disabled until
	// a retry succeeds.
	Catalog          catalog.Snapshot `json:"catalog"`
	CatalogAvailable bool             `json:"catalogAvailable"`

	ServiceItems []domain.ServiceItem `json:"serviceItems"`
	// OriginalAmount is the booking's payable amount at entry, the fixed
	// base every grand total builds on.
	OriginalAmount float64 `json:"originalAmount"`

	Ledger *domain.Ledger `json:"ledger"`
	// Reconciled guards the import of previously submitted parts: it runs
	// at most once per session, even across catalog retries.
	Reconciled bool `json:"reconciled"`

	BrandPrompt domain.BrandPrompt `json:"brandPrompt"`
	// SearchQueries keeps the active catalog filter per service item.
	SearchQueries map[string]string `json:"searchQueries,omitempty"`
}

// New creates a session for a technician entering the parts workflow on a
// booking.
func New(bookingID string, technicianID uuid.UUID) *Session {
	return &Session{
		ID:            uuid.NewString(),
		BookingID:     bookingID,
		TechnicianID:  technicianID,
		CreatedAt:     time.Now().UTC(),
		Ledger:        domain.NewLedger(),
		BrandPrompt:   domain.NewBrandPrompt(),
		SearchQueries: make(map[string]string),
	}
}

// OwnedBy reports whether the session belongs to the given technician.
func (s *Session) OwnedBy(technicianID uuid.UUID) bool {
	return s.TechnicianID == technicianID
}

// SetSearchQuery records the catalog filter for a service item. An empty
// query clears the filter.
func (s *Session) SetSearchQuery(serviceItemID, query string) {
	if s.SearchQueries == nil {
		s.SearchQueries = make(map[string]string)
	}
	if query == "" {
		delete(s.SearchQueries, serviceItemID)
		return
	}
	s.SearchQueries[serviceItemID] = query
}

// SearchQuery returns the active filter for a service item, empty if none.
func (s *Session) SearchQuery(serviceItemID string) string {
	return s.SearchQueries[serviceItemID]
}

// Totals derives the current amount view from the ledger.
func (s *Session) Totals() domain.Totals {
	return domain.ComputeTotals(s.Ledger, s.OriginalAmount)
}

// FindServiceItem looks a booking service item up by id.
func (s *Session) FindServiceItem(serviceItemID string) (domain.ServiceItem, bool) {
	for _, item := range s.ServiceItems {
		if item.ID == serviceItemID {
			return item, true
		}
	}
	return domain.ServiceItem{}, false
}
