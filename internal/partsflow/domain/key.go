// Package domain implements the parts selection ledger: the in-memory state
// of parts a technician is attaching to a booking's service items, the
// reconciliation of previously submitted parts back into editable state, and
// the derived amount totals.
package domain

// SelectionKeyFor derives the composite identity of "this catalog rate
// attached to this service item". Deterministic and collision-free for the
// marketplace's numeric/uuid identifiers, which never contain underscores.
// The ledger is never persisted, so the scheme can change without migration.
func SelectionKeyFor(rateID, serviceItemID string) string {
	return rateID + "_" + serviceItemID
}
