package catalog

import (
	"context"
	"errors"
	"testing"

	"fieldparts_backend/internal/marketplace"
)

type fakeAPI struct {
	groups    []marketplace.RateGroupPayload
	brands    []marketplace.BrandPayload
	groupsErr error
	brandsErr error
}

func (f *fakeAPI) FetchRateGroups(_ context.Context, _, _ string) ([]marketplace.RateGroupPayload, error) {
	return f.groups, f.groupsErr
}

func (f *fakeAPI) FetchBrands(_ context.Context) ([]marketplace.BrandPayload, error) {
	return f.brands, f.brandsErr
}

func (f *fakeAPI) FetchBookingDetail(_ context.Context, _ string) (marketplace.BookingDetailPayload, error) {
	return marketplace.BookingDetailPayload{}, nil
}

func (f *fakeAPI) SubmitParts(_ context.Context, _ marketplace.SubmissionPayload) (marketplace.SubmissionResult, error) {
	return marketplace.SubmissionResult{}, nil
}

func (f *fakeAPI) Notify(_ context.Context, _ marketplace.Notice) error { return nil }

func testGroups() []RateGroup {
	return []RateGroup{
		{Title: "Filters", Rates: []Rate{
			{ID: "r1", Description: "HEPA Filter", UnitPrice: 250},
			{ID: "r2", Description: "Carbon Filter", UnitPrice: 180},
		}},
		{Title: "Refrigerant", Rates: []Rate{
			{ID: "r3", Description: "Gas Top-up", UnitPrice: 900},
		}},
	}
}

func TestLoadCombinesGroupsAndBrands(t *testing.T) {
	api := &fakeAPI{
		groups: []marketplace.RateGroupPayload{
			{Title: "Filters", Rates: []marketplace.RatePayload{{ID: "r1", Description: "HEPA Filter", UnitPrice: 250}}},
		},
		brands: []marketplace.BrandPayload{{ID: "b1", Name: "Daikin"}},
	}

	snap, err := Load(context.Background(), api, "cat-ac", "sub-split")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(snap.Groups) != 1 || len(snap.Brands) != 1 {
		t.Fatalf("snapshot incomplete: %+v", snap)
	}
	if !snap.BrandRequired() {
		t.Fatalf("non-empty brand list must require brands")
	}
}

func TestLoadFailsWhenEitherFetchFails(t *testing.T) {
	api := &fakeAPI{brandsErr: errors.New("upstream down")}
	if _, err := Load(context.Background(), api, "cat-ac", ""); err == nil {
		t.Fatalf("expected error when brand fetch fails")
	}

	api = &fakeAPI{groupsErr: errors.New("upstream down")}
	if _, err := Load(context.Background(), api, "cat-ac", ""); err == nil {
		t.Fatalf("expected error when rate group fetch fails")
	}
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	api := &fakeAPI{brands: []marketplace.BrandPayload{{ID: "b1", Name: "Daikin"}}}
	if _, err := Load(context.Background(), api, "cat-ac", ""); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestBrandRequiredEmptyList(t *testing.T) {
	snap := Snapshot{Groups: testGroups()}
	if snap.BrandRequired() {
		t.Fatalf("empty brand list must not require brands")
	}
}

func TestNormalizeGroupsClampsNegativePrices(t *testing.T) {
	groups := NormalizeGroups([]marketplace.RateGroupPayload{
		{Title: "Filters", Rates: []marketplace.RatePayload{
			{ID: "r1", Description: "Bad Price", UnitPrice: -10},
		}},
	})
	if groups[0].Rates[0].UnitPrice != 0 {
		t.Fatalf("negative unit price must clamp to zero, got %v", groups[0].Rates[0].UnitPrice)
	}
}

func TestFilterCaseInsensitiveSubstring(t *testing.T) {
	filtered := Filter(testGroups(), "fIlTeR")
	if len(filtered) != 1 {
		t.Fatalf("groups without matches must be omitted, got %d groups", len(filtered))
	}
	if len(filtered[0].Rates) != 2 {
		t.Fatalf("both filter rates should match, got %d", len(filtered[0].Rates))
	}

	filtered = Filter(testGroups(), "gas")
	if len(filtered) != 1 || filtered[0].Title != "Refrigerant" {
		t.Fatalf("unexpected filter result: %+v", filtered)
	}
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	groups := testGroups()
	filtered := Filter(groups, "")
	if len(filtered) != len(groups) {
		t.Fatalf("empty query must return the full catalog")
	}
	if filtered = Filter(groups, "   "); len(filtered) != len(groups) {
		t.Fatalf("whitespace query must return the full catalog")
	}
}

func TestFilterNoMatches(t *testing.T) {
	if filtered := Filter(testGroups(), "compressor"); len(filtered) != 0 {
		t.Fatalf("expected empty result, got %+v", filtered)
	}
}

func TestFindRateAndBrand(t *testing.T) {
	snap := Snapshot{Groups: testGroups(), Brands: []Brand{{ID: "b1", Name: "Daikin"}}}

	rate, group, ok := snap.FindRate("r3")
	if !ok || rate.UnitPrice != 900 || group != "Refrigerant" {
		t.Fatalf("find rate failed: %+v %q %v", rate, group, ok)
	}
	if _, _, ok := snap.FindRate("missing"); ok {
		t.Fatalf("unknown rate id must not resolve")
	}

	brand, ok := snap.FindBrand("b1")
	if !ok || brand.Name != "Daikin" {
		t.Fatalf("find brand failed: %+v", brand)
	}
	if _, ok := snap.FindBrand("missing"); ok {
		t.Fatalf("unknown brand id must not resolve")
	}
}
