// Package service implements the parts workflow: entering a booking, loading
// its catalog, reconciling previously submitted parts, editing the selection
// ledger and submitting the result back to the marketplace.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"fieldparts_backend/internal/catalog"
	"fieldparts_backend/internal/events"
	"fieldparts_backend/internal/marketplace"
	"fieldparts_backend/internal/partsflow/domain"
	"fieldparts_backend/internal/partsflow/session"
	"fieldparts_backend/platform/apperr"
	"fieldparts_backend/platform/logger"
)

// Service orchestrates parts workflow sessions.
type Service struct {
	sessions *session.Store
	market   marketplace.API
	bus      events.Bus
	log      *logger.Logger

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// New creates the parts workflow service.
func New(sessions *session.Store, market marketplace.API, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		sessions:     sessions,
		market:       market,
		bus:          bus,
		log:          log,
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// lockSession serializes the load-mutate-save cycle for one session within
// this process. The app issues one user action at a time, but double-taps
// and in-flight retries do overlap.
func (s *Service) lockSession(sessionID string) func() {
	s.mu.Lock()
	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionID] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// forgetSession drops the lock entry once the session itself is gone.
func (s *Service) forgetSession(sessionID string) {
	s.mu.Lock()
	delete(s.sessionLocks, sessionID)
	s.mu.Unlock()
}

// Enter opens a parts workflow on a booking: fetches the booking detail,
// loads the catalog for its category, reconciles any previously submitted
// parts into the ledger and persists the fresh session.
//
// A failed catalog load does not fail entry. The session is created in a
// degraded state with adds disabled; RetryCatalog recovers it.
func (s *Service) Enter(ctx context.Context, technicianID uuid.UUID, bookingID string) (*session.Session, error) {
	booking, err := s.market.FetchBookingDetail(ctx, bookingID)
	if err != nil {
		return nil, apperr.Upstream("booking detail unavailable", err).WithOp("partsflow.Enter")
	}

	sess := session.New(bookingID, technicianID)
	sess.OriginalAmount = booking.PayableAmount
	sess.ServiceItems = serviceItemsFromPayload(booking.ServiceItems)

	snap, err := catalog.Load(ctx, s.market, booking.CategoryID, booking.SubCategoryID)
	if err != nil {
		s.log.UpstreamError("catalog load", err)
	} else {
		sess.Catalog = snap
		sess.CatalogAvailable = true
		s.reconcile(sess, booking.ExistingParts)
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save workflow session", err)
	}
	s.log.WorkflowEvent("workflow_entered", sess.ID, bookingID)
	return sess, nil
}

// Get loads a workflow session, enforcing ownership.
func (s *Service) Get(ctx context.Context, technicianID uuid.UUID, sessionID string) (*session.Session, error) {
	return s.load(ctx, technicianID, sessionID)
}

// RetryCatalog re-attempts the catalog load for a degraded session. On
// success the session leaves the degraded state and, if it never has, runs
// the one-shot reconciliation of previously submitted parts.
func (s *Service) RetryCatalog(ctx context.Context, technicianID uuid.UUID, sessionID string) (*session.Session, error) {
	defer s.lockSession(sessionID)()

	sess, err := s.load(ctx, technicianID, sessionID)
	if err != nil {
		return nil, err
	}

	booking, err := s.market.FetchBookingDetail(ctx, sess.BookingID)
	if err != nil {
		return nil, apperr.Upstream("booking detail unavailable", err).WithOp("partsflow.RetryCatalog")
	}
	snap, err := catalog.Load(ctx, s.market, booking.CategoryID, booking.SubCategoryID)
	if err != nil {
		return nil, apperr.Upstream("parts catalog unavailable", err).WithOp("partsflow.RetryCatalog")
	}

	sess.Catalog = snap
	sess.CatalogAvailable = true
	s.reconcile(sess, booking.ExistingParts)

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save workflow session", err)
	}
	s.log.WorkflowEvent("catalog_retried", sess.ID, sess.BookingID)
	return sess, nil
}

// Cancel abandons a workflow. The ledger is volatile, so cancellation is
// simply deleting the session; nothing upstream needs undoing.
func (s *Service) Cancel(ctx context.Context, technicianID uuid.UUID, sessionID string) error {
	defer s.lockSession(sessionID)()

	sess, err := s.load(ctx, technicianID, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "delete workflow session", err)
	}
	s.forgetSession(sess.ID)
	s.log.WorkflowEvent("workflow_cancelled", sess.ID, sess.BookingID)
	return nil
}

// reconcile imports previously submitted parts exactly once per session.
func (s *Service) reconcile(sess *session.Session, persisted []marketplace.PersistedPartPayload) {
	if sess.Reconciled {
		return
	}
	result := domain.Reconcile(sess.Ledger, sess.Catalog, sess.ServiceItems, persisted)
	sess.Reconciled = true
	if result.Imported > 0 {
		s.log.Info("existing parts reconciled",
			"session_id", sess.ID,
			"imported", result.Imported,
			"matched", result.Matched,
			"fallback", result.Fallback,
			"synthetic", result.Synthetic,
		)
	}
}

// load fetches a session and verifies the caller owns it. A session held by
// another technician is reported as forbidden, not as missing, so a stolen
// session id cannot be probed silently.
func (s *Service) load(ctx context.Context, technicianID uuid.UUID, sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, apperr.Gone("workflow session expired or not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load workflow session", err)
	}
	if !sess.OwnedBy(technicianID) {
		return nil, apperr.Forbidden("workflow session belongs to another technician")
	}
	return sess, nil
}

func serviceItemsFromPayload(payloads []marketplace.ServiceItemPayload) []domain.ServiceItem {
	items := make([]domain.ServiceItem, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, domain.ServiceItem{
			ID:        p.ID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
			Total:     p.Total,
		})
	}
	return items
}
