package database

// Page slices items by limit and offset the way SQL LIMIT/OFFSET would.
// A non-positive limit returns everything after offset.
func Page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
