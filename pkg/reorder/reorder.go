// Package reorder holds the pure list-move used by drag-and-drop adapters for
// form fields and table columns.
package reorder

// Move returns a copy of items with the element at from moved to index to.
// Out of range indices return an unchanged copy.
func Move[T any](items []T, from, to int) []T {
	out := append([]T(nil), items...)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out
}

// MoveKey moves the element identified by activeKey to the position currently
// held by overKey. It reports false when either key is missing or they match.
func MoveKey[T any](items []T, key func(T) string, activeKey, overKey string) ([]T, bool) {
	if activeKey == overKey {
		return append([]T(nil), items...), false
	}
	from, to := -1, -1
	for i, item := range items {
		switch key(item) {
		case activeKey:
			from = i
		case overKey:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return append([]T(nil), items...), false
	}
	return Move(items, from, to), true
}
