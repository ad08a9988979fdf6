package catalog

import (
	"context"
	"errors"

	"fieldparts_backend/internal/marketplace"

	"golang.org/x/sync/errgroup"
)

// ErrEmptyCatalog is returned when the upstream reports no rate groups for
// the category. Treated the same as a failed fetch: the workflow degrades to
// add-disabled instead of offering an empty picker.
var ErrEmptyCatalog = errors.New("catalog returned no rate groups")

// Load fetches rate groups and brands concurrently and returns the normalized
// snapshot. Both fetches are one-shot per workflow entry; either failing fails
// the load as a whole and the caller degrades to an add-disabled workflow.
func Load(ctx context.Context, api marketplace.API, categoryID, subCategoryID string) (Snapshot, error) {
	var (
		groupPayloads []marketplace.RateGroupPayload
		brandPayloads []marketplace.BrandPayload
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		payloads, err := api.FetchRateGroups(gctx, categoryID, subCategoryID)
		if err != nil {
			return err
		}
		groupPayloads = payloads
		return nil
	})
	g.Go(func() error {
		payloads, err := api.FetchBrands(gctx)
		if err != nil {
			return err
		}
		brandPayloads = payloads
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	if len(groupPayloads) == 0 {
		return Snapshot{}, ErrEmptyCatalog
	}

	return Snapshot{
		Groups: NormalizeGroups(groupPayloads),
		Brands: NormalizeBrands(brandPayloads),
	}, nil
}
