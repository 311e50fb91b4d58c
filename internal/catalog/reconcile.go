package catalog

// DuplicateReason is attached to every row rejected by Reconcile.
const DuplicateReason = "Duplicate product name found in database."

// Reconcile partitions canonical rows into an insert set and a duplicate
// list, preserving encounter order.
//
// The existing set is a snapshot of stored names taken once before the loop.
// Names accepted earlier in the same batch are added to a working copy of
// the snapshot, so two rows in one file with the same name resolve as
// first-wins rather than two inserts. The store is never re-queried per row;
// a concurrent import of the same name can therefore race past the check,
// which is an accepted trade-off for batch efficiency.
func Reconcile(rows []Product, existing map[string]struct{}) (inserts []Product, duplicates []Duplicate) {
	seen := make(map[string]struct{}, len(existing)+len(rows))
	for name := range existing {
		seen[name] = struct{}{}
	}

	for _, row := range rows {
		if _, dup := seen[row.Name]; dup {
			duplicates = append(duplicates, Duplicate{Product: row, Reason: DuplicateReason})
			continue
		}
		inserts = append(inserts, row)
		seen[row.Name] = struct{}{}
	}
	return inserts, duplicates
}
