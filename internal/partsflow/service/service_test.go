package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fieldparts_backend/internal/events"
	"fieldparts_backend/internal/marketplace"
	"fieldparts_backend/internal/partsflow/session"
	"fieldparts_backend/platform/apperr"
	"fieldparts_backend/platform/logger"
)

// fakeMarketplace is an in-memory stand-in for the core marketplace API.
type fakeMarketplace struct {
	booking      marketplace.BookingDetailPayload
	rateGroups   []marketplace.RateGroupPayload
	brands       []marketplace.BrandPayload
	catalogErr   error
	submitErr    error
	submitResult marketplace.SubmissionResult
	submitted    []marketplace.SubmissionPayload
}

func (f *fakeMarketplace) FetchRateGroups(_ context.Context, _, _ string) ([]marketplace.RateGroupPayload, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.rateGroups, nil
}

func (f *fakeMarketplace) FetchBrands(_ context.Context) ([]marketplace.BrandPayload, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.brands, nil
}

func (f *fakeMarketplace) FetchBookingDetail(_ context.Context, bookingID string) (marketplace.BookingDetailPayload, error) {
	if f.booking.ID != bookingID {
		return marketplace.BookingDetailPayload{}, errors.New("not found: booking")
	}
	return f.booking, nil
}

func (f *fakeMarketplace) SubmitParts(_ context.Context, payload marketplace.SubmissionPayload) (marketplace.SubmissionResult, error) {
	if f.submitErr != nil {
		return marketplace.SubmissionResult{}, f.submitErr
	}
	f.submitted = append(f.submitted, payload)
	if f.submitResult == (marketplace.SubmissionResult{}) {
		return marketplace.SubmissionResult{Success: true}, nil
	}
	return f.submitResult, nil
}

func (f *fakeMarketplace) Notify(_ context.Context, _ marketplace.Notice) error { return nil }

type testSessionConfig struct{}

func (testSessionConfig) GetRedisURL() string                  { return "redis://localhost:6379/0" }
func (testSessionConfig) GetRedisTLSInsecure() bool            { return false }
func (testSessionConfig) GetWorkflowSessionTTL() time.Duration { return 30 * time.Minute }
func (testSessionConfig) GetSubmitLockTTL() time.Duration      { return 30 * time.Second }

func defaultBooking() marketplace.BookingDetailPayload {
	return marketplace.BookingDetailPayload{
		ID:            "bk-1",
		CategoryID:    "cat-ac",
		SubCategoryID: "sub-split",
		PayableAmount: 1200,
		ServiceItems: []marketplace.ServiceItemPayload{
			{ID: "si9", Name: "AC Deep Clean", Quantity: 1, UnitPrice: 1200, Total: 1200},
		},
	}
}

func defaultCatalog() []marketplace.RateGroupPayload {
	return []marketplace.RateGroupPayload{
		{Title: "Filters", Rates: []marketplace.RatePayload{
			{ID: "r1", Description: "HEPA Filter", UnitPrice: 250},
			{ID: "r2", Description: "Carbon Filter", UnitPrice: 180},
		}},
	}
}

func newTestService(t *testing.T, market *fakeMarketplace) (*Service, *events.InMemoryBus) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStoreWithClient(client, testSessionConfig{})
	t.Cleanup(func() { store.Close() })

	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	return New(store, market, bus, log), bus
}

func TestEnterLoadsCatalogAndBooking(t *testing.T) {
	market := &fakeMarketplace{booking: defaultBooking(), rateGroups: defaultCatalog()}
	svc, _ := newTestService(t, market)
	technicianID := uuid.New()

	sess, err := svc.Enter(context.Background(), technicianID, "bk-1")
	if err != nil {
		t.Fatalf("enter failed: %v", err)
	}
	if !sess.CatalogAvailable {
		t.Fatalf("catalog should be available")
	}
	if sess.OriginalAmount != 1200 || len(sess.ServiceItems) != 1 {
		t.Fatalf("booking context not captured: %+v", sess)
	}
	if !sess.Reconciled {
		t.Fatalf("reconciliation must run on a successful catalog load")
	}

	// Session is retrievable by its owner.
	loaded, err := svc.Get(context.Background(), technicianID, sess.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.BookingID != "bk-1" {
		t.Fatalf("wrong session loaded")
	}

	// And forbidden to anyone else.
	if _, err := svc.Get(context.Background(), uuid.New(), sess.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for foreign technician, got %v", err)
	}
}

func TestEnterDegradedWhenCatalogFails(t *testing.T) {
	market := &fakeMarketplace{booking: defaultBooking(), catalogErr: errors.New("upstream down")}
	svc, _ := newTestService(t, market)
	technicianID := uuid.New()

	sess, err := svc.Enter(context.Background(), technicianID, "bk-1")
	if err != nil {
		t.Fatalf("enter must survive a catalog failure: %v", err)
	}
	if sess.CatalogAvailable {
		t.Fatalf("catalog must be flagged unavailable")
	}
	if sess.Reconciled {
		t.Fatalf("reconciliation must wait for a catalog")
	}

	// Adds are disabled in the degraded state.
	if _, err := svc.Select(context.Background(), technicianID, sess.ID, "si9", "r1"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict while degraded, got %v", err)
	}

	// Recovery via retry, including the deferred reconciliation.
	market.catalogErr = nil
	market.booking.ExistingParts = []marketplace.PersistedPartPayload{
		{ID: "p1", RateID: "r1", UnitPrice: 250, Quantity: 2, ServiceItemID: "si9"},
	}
	sess, err = svc.RetryCatalog(context.Background(), technicianID, sess.ID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !sess.CatalogAvailable || !sess.Reconciled {
		t.Fatalf("retry must recover the session: %+v", sess)
	}
	if !sess.Ledger.Has("r1_si9") || sess.Ledger.Quantity("r1_si9") != 2 {
		t.Fatalf("existing parts not reconciled on retry")
	}
}

func TestEnterReconcilesExistingParts(t *testing.T) {
	booking := defaultBooking()
	booking.ExistingParts = []marketplace.PersistedPartPayload{
		{ID: "p1", RateID: "r1", UnitPrice: 250, Quantity: 3, ServiceItemID: "si9"},
	}
	market := &fakeMarketplace{booking: booking, rateGroups: defaultCatalog()}
	svc, _ := newTestService(t, market)

	sess, err := svc.Enter(context.Background(), uuid.New(), "bk-1")
	if err != nil {
		t.Fatalf("enter failed: %v", err)
	}
	part, ok := sess.Ledger.Parts["r1_si9"]
	if !ok || !part.IsExisting {
		t.Fatalf("existing part not reconciled: %+v", sess.Ledger.Parts)
	}
	if got := sess.Totals().GrandTotal; got != 1950 {
		t.Fatalf("totals must include reconciled parts, got %v", got)
	}
}

func TestSelectWithoutBrandGate(t *testing.T) {
	market := &fakeMarketplace{booking: defaultBooking(), rateGroups: defaultCatalog()}
	svc, _ := newTestService(t, market)
	technicianID := uuid.New()
	sess, _ := svc.Enter(context.Background(), technicianID, "bk-1")

	outcome, err := svc.Select(context.Background(), technicianID, sess.ID, "si9", "r1")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if outcome.Status != StatusSelected {
		t.Fatalf("expected StatusSelected, got %s", outcome.Status)
	}
	if outcome.Session.Totals().GrandTotal != 1450 {
		t.Fatalf("totals not updated, got %v", outcome.Session.Totals().GrandTotal)
	}

	// Re-selection is a no-op signal.
	outcome, err = svc.Select(context.Background(), technicianID, sess.ID, "si9", "r1")
	if err != nil {
		t.Fatalf("re-select failed: %v", err)
	}
	if outcome.Status != StatusAlreadySelected {
		t.Fatalf("expected StatusAlreadySelected, got %s", outcome.Status)
	}
}

func TestSelectBrandGateFlow(t *testing.T) {
	market := &fakeMarketplace{
		booking:    defaultBooking(),
		rateGroups: defaultCatalog(),
		brands:     []marketplace.BrandPayload{{ID: "b1", Name: "Daikin"}},
	}
	svc, _ := newTestService(t, market)
	technicianID := uuid.New()
	sess, _ := svc.Enter(context.Background(), technicianID, "bk-1")

	outcome, err := svc.Select(context.Background(), technicianID, sess.ID, "si9", "r1")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if outcome.Status != StatusBrandRequired {
		t.Fatalf("expected StatusBrandRequired, got %s", outcome.Status)
	}
	if outcome.Session.Ledger.Len() != 0 {
		t.Fatalf("gated selection must not create a ledger entry")
	}
	if !outcome.Session.BrandPrompt.Matches("r1", "si9") {
		t.Fatalf("brand prompt not opened for the gated selection")
	}

	confirmed, err := svc.ConfirmBrand(context.Background(), technicianID, sess.ID, "b1")
	if err != nil {
		t.Fatalf("confirm brand failed: %v", err)
	}
	part := confirmed.Part
	if part.BrandID != "b1" || part.BrandName != "Daikin" {
		t.Fatalf("part created without the confirmed brand: %+v", part)
	}
	if confirmed.Session.BrandPrompt.IsOpen() {
		t.Fatalf("prompt must close after confirmation")
	}
	if confirmed.Session.Ledger.Quantity("r1_si9") != 1 {
		t.Fatalf("confirmed selection must land with quantity 1")
	}
}

func TestCancelBrandPromptLeavesLedgerUntouched(t *testing.T) {
	market := &fakeMarketplace{
		booking:    defaultBooking(),
		rateGroups: defaultCatalog(),
		brands:     []marketplace.BrandPayload{{ID: "b1", Name: "Daikin"}},
	}
	svc, _ := newTestService(t, market)
	technicianID := uuid.New()
	sess, _ := svc.Enter(context.Background(), technicianID, "bk-1")

	if _, err := svc.Select(context.Background(), technicianID, sess.ID, "si9", "r1"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	after, err := svc.CancelBrandPrompt(context.Background(), technicianID, sess.ID)
	if err != nil {
		t.Fatalf("cancel prompt failed: %v", err)
	}
	if after.BrandPrompt.IsOpen() || after.Ledger.Len() != 0 {
		t.Fatalf("cancelled prompt must leave no trace: %+v", after.BrandPrompt)
	}

	// Confirming with no open prompt is a conflict.
	if _, err := svc.ConfirmBrand(context.Background(), technicianID, sess.ID, "b1"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSetQuantityRemovalNeedsConfirmation(t *testing.T) {
	market := &fakeMarketplace{booking: defaultBooking(), rateGroups: defaultCatalog()}
	svc, _ := newTestService(t, market)
	technicianID := uuid.New()
	sess, _ := svc.Enter(context.Background(), technicianID, "bk-1")
	if _, err := svc.Select(context.Background(), technicianID, sess.ID, "si9", "r1"); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	if _, err := svc.SetQuantity(context.Background(), technicianID, sess.ID, "r1_si9", 0, false); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unconfirmed removal must be rejected, got %v", err)
	}
	after, err := svc.Get(context.Background(), technicianID, sess.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !after.Ledger.Has("r1_si9") {
		t.Fatalf("rejected removal must not mutate the ledger")
	}

	after, err = svc.SetQuantity(context.Background(), technicianID, sess.ID, "r1_si9", 0, true)
	if err != nil {
		t.Fatalf("confirmed removal failed: %v", err)
	}
	if after.Ledger.Has("r1_si9") {
		t.Fatalf("confirmed removal must delete the part")
	}
}

func TestSearchFilterPerServiceItem(t *testing.T) {
	market := &fakeMarketplace{booking: defaultBooking(), rateGroups: defaultCatalog()}
	svc, _ := newTestService(t, market)
	technicianID := uuid.New()
	sess, _ := svc.Enter(context.Background(), technicianID, "bk-1")

	after, err := svc.Search(context.Background(), technicianID, sess.ID, "si9", "hepa")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	groups := FilteredCatalog(after, "si9")
	if len(groups) != 1 || len(groups[0].Rates) != 1 || groups[0].Rates[0].ID != "r1" {
		t.Fatalf("filter not applied: %+v", groups)
	}

	// Clearing restores the full catalog.
	after, err = svc.Search(context.Background(), technicianID, sess.ID, "si9", "")
	if err != nil {
		t.Fatalf("clear search failed: %v", err)
	}
	if groups := FilteredCatalog(after, "si9"); len(groups[0].Rates) != 2 {
		t.Fatalf("cleared filter must restore the catalog: %+v", groups)
	}
}

func TestSubmitHappyPath(t *testing.T) {
	market := &fakeMarketplace{booking: defaultBooking(), rateGroups: defaultCatalog()}
	svc, bus := newTestService(t, market)
	technicianID := uuid.New()
	sess, _ := svc.Enter(context.Background(), technicianID, "bk-1")
	if _, err := svc.Select(context.Background(), technicianID, sess.ID, "si9", "r1"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if _, err := svc.SetQuantity(context.Background(), technicianID, sess.ID, "r1_si9", 3, false); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}

	received := make(chan events.PartsSubmitted, 1)
	bus.Subscribe(events.PartsSubmitted{}.EventName(), events.HandlerOf(func(_ context.Context, e events.PartsSubmitted) error {
		received <- e
		return nil
	}))

	result, err := svc.Submit(context.Background(), technicianID, sess.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.PartCount != 1 || result.Totals.GrandTotal != 1950 {
		t.Fatalf("unexpected submit result: %+v", result)
	}

	if len(market.submitted) != 1 {
		t.Fatalf("expected one upstream submission, got %d", len(market.submitted))
	}
	payload := market.submitted[0]
	if payload.TotalAmount != 1950 || payload.AdditionalPartsAmount != 750 {
		t.Fatalf("payload amounts wrong: %+v", payload)
	}
	if len(payload.Parts) != 1 || payload.Parts[0].TotalPrice != 750 {
		t.Fatalf("payload lines wrong: %+v", payload.Parts)
	}

	select {
	case e := <-received:
		if e.BookingID != "bk-1" || e.PartCount() != 1 {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("submitted event not published")
	}

	// The session dies with the submission.
	if _, err := svc.Get(context.Background(), technicianID, sess.ID); !apperr.Is(err, apperr.KindGone) {
		t.Fatalf("expected gone after submit, got %v", err)
	}
}

func TestSubmitBlockedByBrandGate(t *testing.T) {
	booking := defaultBooking()
	booking.ExistingParts = []marketplace.PersistedPartPayload{
		{ID: "p1", RateID: "r1", UnitPrice: 250, Quantity: 1, ServiceItemID: "si9"},
	}
	market := &fakeMarketplace{
		booking:    booking,
		rateGroups: defaultCatalog(),
		brands:     []marketplace.BrandPayload{{ID: "b1", Name: "Daikin"}},
	}
	svc, _ := newTestService(t, market)
	technicianID := uuid.New()
	sess, _ := svc.Enter(context.Background(), technicianID, "bk-1")

	_, err := svc.Submit(context.Background(), technicianID, sess.ID)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(market.submitted) != 0 {
		t.Fatalf("no payload may be sent while the brand gate blocks")
	}

	// Fixing the brand unblocks submission.
	if _, err := svc.SetBrand(context.Background(), technicianID, sess.ID, "r1_si9", "b1"); err != nil {
		t.Fatalf("set brand failed: %v", err)
	}
	if _, err := svc.Submit(context.Background(), technicianID, sess.ID); err != nil {
		t.Fatalf("submit after brand fix failed: %v", err)
	}
}

func TestSubmitEmptyLedgerRejected(t *testing.T) {
	market := &fakeMarketplace{booking: defaultBooking(), rateGroups: defaultCatalog()}
	svc, _ := newTestService(t, market)
	technicianID := uuid.New()
	sess, _ := svc.Enter(context.Background(), technicianID, "bk-1")

	if _, err := svc.Submit(context.Background(), technicianID, sess.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty ledger, got %v", err)
	}
}

func TestSubmitUpstreamFailureReleasesLock(t *testing.T) {
	market := &fakeMarketplace{booking: defaultBooking(), rateGroups: defaultCatalog()}
	svc, bus := newTestService(t, market)
	technicianID := uuid.New()
	sess, _ := svc.Enter(context.Background(), technicianID, "bk-1")
	if _, err := svc.Select(context.Background(), technicianID, sess.ID, "si9", "r1"); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	failed := make(chan events.PartsSubmissionFailed, 1)
	bus.Subscribe(events.PartsSubmissionFailed{}.EventName(), events.HandlerOf(func(_ context.Context, e events.PartsSubmissionFailed) error {
		failed <- e
		return nil
	}))

	market.submitErr = errors.New("upstream down")
	if _, err := svc.Submit(context.Background(), technicianID, sess.ID); !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	select {
	case e := <-failed:
		if e.BookingID != "bk-1" || e.Reason != "upstream down" {
			t.Fatalf("unexpected failure event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("failure event not published")
	}

	// Session survives and a retry goes through once upstream recovers.
	market.submitErr = nil
	if _, err := svc.Submit(context.Background(), technicianID, sess.ID); err != nil {
		t.Fatalf("retry after upstream recovery failed: %v", err)
	}
}

func TestCancelDeletesSession(t *testing.T) {
	market := &fakeMarketplace{booking: defaultBooking(), rateGroups: defaultCatalog()}
	svc, _ := newTestService(t, market)
	technicianID := uuid.New()
	sess, _ := svc.Enter(context.Background(), technicianID, "bk-1")

	if err := svc.Cancel(context.Background(), technicianID, sess.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), technicianID, sess.ID); !apperr.Is(err, apperr.KindGone) {
		t.Fatalf("expected gone after cancel, got %v", err)
	}
}
