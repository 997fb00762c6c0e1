// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a unique key from each item for comparison.
// Only the first occurrence of each key is kept.
//
// Example:
//
//	locs := []campus.Location{{ID: "AB1_303"}, {ID: "CANTEEN"}, {ID: "AB1_303"}}
//	unique := sliceutil.Deduplicate(locs, func(l campus.Location) string { return l.ID })
//	// Result: [{ID: "AB1_303"}, {ID: "CANTEEN"}]
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFunc(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

// Map applies fn to every item. A nil input yields a nil result.
func Map[T, U any](items []T, fn func(T) U) []U {
	if items == nil {
		return nil
	}
	out := make([]U, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}
