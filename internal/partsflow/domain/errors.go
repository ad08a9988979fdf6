package domain

import (
	"errors"
	"fmt"
)

// Control-flow signals returned by ledger operations. These are not failures:
// callers branch on them to drive the interaction (open the brand prompt,
// open the quantity editor) instead of mutating state.
var (
	// ErrBrandRequired signals that the catalog declares brands and the
	// selection cannot proceed until one is chosen.
	ErrBrandRequired = errors.New("brand selection required")

	// ErrAlreadySelected signals an idempotent re-selection: the key exists,
	// so the caller should surface the quantity editor instead of creating a
	// duplicate entry.
	ErrAlreadySelected = errors.New("part already selected")

	// ErrNotSelected is returned when a quantity or brand mutation addresses
	// a key with no ledger entry.
	ErrNotSelected = errors.New("no part selected for key")
)

// BrandMissingError refuses a submission because one or more selected parts
// lack a brand while the catalog declares brands. No partial payload is built.
type BrandMissingError struct {
	Count int
}

func (e *BrandMissingError) Error() string {
	return fmt.Sprintf("%d selected part(s) missing a brand", e.Count)
}
