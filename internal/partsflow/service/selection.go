package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"fieldparts_backend/internal/catalog"
	"fieldparts_backend/internal/partsflow/domain"
	"fieldparts_backend/internal/partsflow/session"
	"fieldparts_backend/platform/apperr"
)

// SelectStatus tells the handler which interaction follows a selection
// attempt.
type SelectStatus string

const (
	// StatusSelected means the part was added with quantity 1.
	StatusSelected SelectStatus = "selected"
	// StatusBrandRequired means the selection is gated: a brand prompt is
	// now open and nothing was added.
	StatusBrandRequired SelectStatus = "brandRequired"
	// StatusAlreadySelected means the key already exists; the client should
	// open the quantity editor instead.
	StatusAlreadySelected SelectStatus = "alreadySelected"
)

// SelectOutcome is the result of a selection attempt.
type SelectOutcome struct {
	Status  SelectStatus
	Part    domain.SelectedPart
	Session *session.Session
}

// Search stores the catalog filter for a service item and returns the session
// with the filter applied on read. Filtering is substring, case-insensitive,
// against rate descriptions; group structure is preserved.
func (s *Service) Search(ctx context.Context, technicianID uuid.UUID, sessionID, serviceItemID, query string) (*session.Session, error) {
	defer s.lockSession(sessionID)()

	sess, err := s.load(ctx, technicianID, sessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := sess.FindServiceItem(serviceItemID); !ok {
		return nil, apperr.NotFound("service item not on this booking")
	}

	sess.SetSearchQuery(serviceItemID, query)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save workflow session", err)
	}
	return sess, nil
}

// FilteredCatalog returns the catalog groups visible for a service item under
// its active search filter.
func FilteredCatalog(sess *session.Session, serviceItemID string) []catalog.RateGroup {
	return catalog.Filter(sess.Catalog.Groups, sess.SearchQuery(serviceItemID))
}

// Select attaches a catalog rate to a service item. When the catalog declares
// brands and no brand is buffered for the key, no entry is created; instead
// the brand prompt opens and the outcome reports StatusBrandRequired.
// Re-selecting an existing key changes nothing and reports
// StatusAlreadySelected.
func (s *Service) Select(ctx context.Context, technicianID uuid.UUID, sessionID, serviceItemID, rateID string) (*SelectOutcome, error) {
	defer s.lockSession(sessionID)()

	sess, err := s.load(ctx, technicianID, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.CatalogAvailable {
		return nil, apperr.Conflict("parts catalog unavailable; retry the catalog load first")
	}
	item, ok := sess.FindServiceItem(serviceItemID)
	if !ok {
		return nil, apperr.NotFound("service item not on this booking")
	}
	rate, groupTitle, ok := sess.Catalog.FindRate(rateID)
	if !ok {
		return nil, apperr.NotFound("rate not in the loaded catalog")
	}

	part, err := sess.Ledger.Select(rate, item, groupTitle, sess.Catalog.BrandRequired(), false)
	switch {
	case errors.Is(err, domain.ErrBrandRequired):
		sess.BrandPrompt.Open(rateID, serviceItemID)
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "save workflow session", err)
		}
		return &SelectOutcome{Status: StatusBrandRequired, Session: sess}, nil
	case errors.Is(err, domain.ErrAlreadySelected):
		return &SelectOutcome{Status: StatusAlreadySelected, Part: part, Session: sess}, nil
	case err != nil:
		return nil, apperr.Wrap(apperr.KindInternal, "select part", err)
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save workflow session", err)
	}
	return &SelectOutcome{Status: StatusSelected, Part: part, Session: sess}, nil
}

// ConfirmBrand resolves an open brand prompt: the chosen brand is buffered
// for the pending key and the gated selection is replayed, so the part lands
// with its brand in one step.
func (s *Service) ConfirmBrand(ctx context.Context, technicianID uuid.UUID, sessionID, brandID string) (*SelectOutcome, error) {
	defer s.lockSession(sessionID)()

	sess, err := s.load(ctx, technicianID, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.BrandPrompt.IsOpen() {
		return nil, apperr.Conflict("no brand prompt open")
	}
	brand, ok := sess.Catalog.FindBrand(brandID)
	if !ok {
		return nil, apperr.NotFound("brand not in the loaded catalog")
	}
	item, ok := sess.FindServiceItem(sess.BrandPrompt.ServiceItemID)
	if !ok {
		sess.BrandPrompt.Close()
		return nil, apperr.NotFound("service item not on this booking")
	}
	rate, groupTitle, ok := sess.Catalog.FindRate(sess.BrandPrompt.RateID)
	if !ok {
		sess.BrandPrompt.Close()
		return nil, apperr.NotFound("rate not in the loaded catalog")
	}

	key := domain.SelectionKeyFor(rate.ID, item.ID)
	sess.Ledger.SetBrand(key, domain.BrandChoice{ID: brand.ID, Name: brand.Name})
	part, err := sess.Ledger.Select(rate, item, groupTitle, sess.Catalog.BrandRequired(), true)
	if err != nil && !errors.Is(err, domain.ErrAlreadySelected) {
		return nil, apperr.Wrap(apperr.KindInternal, "select part", err)
	}
	sess.BrandPrompt.Close()

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save workflow session", err)
	}
	return &SelectOutcome{Status: StatusSelected, Part: part, Session: sess}, nil
}

// CancelBrandPrompt dismisses an open brand prompt. The gated selection is
// abandoned; the ledger was never touched.
func (s *Service) CancelBrandPrompt(ctx context.Context, technicianID uuid.UUID, sessionID string) (*session.Session, error) {
	defer s.lockSession(sessionID)()

	sess, err := s.load(ctx, technicianID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.BrandPrompt.Close()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save workflow session", err)
	}
	return sess, nil
}

// SetQuantity updates the quantity of a selected part. Dropping below 1
// removes the part, which is destructive and therefore requires the caller to
// pass confirmRemove; without it the call is rejected and nothing changes.
func (s *Service) SetQuantity(ctx context.Context, technicianID uuid.UUID, sessionID, selectionKey string, quantity int, confirmRemove bool) (*session.Session, error) {
	defer s.lockSession(sessionID)()

	sess, err := s.load(ctx, technicianID, sessionID)
	if err != nil {
		return nil, err
	}
	if quantity < 1 && !confirmRemove {
		return nil, apperr.New(apperr.KindValidation, "reducing quantity below 1 removes the part; confirmation required").
			WithDetails(map[string]string{"selectionKey": selectionKey})
	}

	if err := sess.Ledger.SetQuantity(selectionKey, quantity); err != nil {
		return nil, apperr.NotFound("part not selected")
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save workflow session", err)
	}
	return sess, nil
}

// SetBrand changes the brand on an already selected part.
func (s *Service) SetBrand(ctx context.Context, technicianID uuid.UUID, sessionID, selectionKey, brandID string) (*session.Session, error) {
	defer s.lockSession(sessionID)()

	sess, err := s.load(ctx, technicianID, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Ledger.Has(selectionKey) {
		return nil, apperr.NotFound("part not selected")
	}
	brand, ok := sess.Catalog.FindBrand(brandID)
	if !ok {
		return nil, apperr.NotFound("brand not in the loaded catalog")
	}

	sess.Ledger.SetBrand(selectionKey, domain.BrandChoice{ID: brand.ID, Name: brand.Name})
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save workflow session", err)
	}
	return sess, nil
}

// Remove deletes a selected part. Removal is always confirmed client-side;
// server-side it is unconditional and idempotent.
func (s *Service) Remove(ctx context.Context, technicianID uuid.UUID, sessionID, selectionKey string) (*session.Session, error) {
	defer s.lockSession(sessionID)()

	sess, err := s.load(ctx, technicianID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Ledger.Remove(selectionKey)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save workflow session", err)
	}
	return sess, nil
}
