// internal/store/collection.go
package store

// Entity is anything cached by id
type Entity[K comparable] interface {
	Key() K
}

// FindByID returns the entity with id and its index
func FindByID[T Entity[K], K comparable](items []T, id K) (T, int, bool) {
	for i, item := range items {
		if item.Key() == id {
			return item, i, true
		}
	}
	var zero T
	return zero, -1, false
}

// MergeByID appends incoming to existing and collapses duplicates by id.
// The last write for an id wins; its position is where the id was first seen.
func MergeByID[T Entity[K], K comparable](existing, incoming []T) []T {
	out := make([]T, 0, len(existing)+len(incoming))
	index := make(map[K]int, len(existing)+len(incoming))

	for _, batch := range [][]T{existing, incoming} {
		for _, item := range batch {
			if i, ok := index[item.Key()]; ok {
				out[i] = item
				continue
			}
			index[item.Key()] = len(out)
			out = append(out, item)
		}
	}
	return out
}

// Dedupe collapses duplicate ids in a single batch
func Dedupe[T Entity[K], K comparable](items []T) []T {
	return MergeByID[T, K](nil, items)
}

// ReplaceByID returns a copy of items with the entity of the same id replaced
func ReplaceByID[T Entity[K], K comparable](items []T, item T) ([]T, bool) {
	_, i, ok := FindByID[T, K](items, item.Key())
	if !ok {
		return items, false
	}
	out := make([]T, len(items))
	copy(out, items)
	out[i] = item
	return out, true
}

// UpdateByID returns a copy of items with fn applied to the entity with id
func UpdateByID[T Entity[K], K comparable](items []T, id K, fn func(T) T) ([]T, T, bool) {
	prev, i, ok := FindByID[T, K](items, id)
	if !ok {
		return items, prev, false
	}
	out := make([]T, len(items))
	copy(out, items)
	out[i] = fn(prev)
	return out, prev, true
}

// RemoveByID returns a copy of items without id, plus the removed entity and
// the index it occupied so it can be put back
func RemoveByID[T Entity[K], K comparable](items []T, id K) ([]T, T, int, bool) {
	removed, i, ok := FindByID[T, K](items, id)
	if !ok {
		return items, removed, -1, false
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)
	return out, removed, i, true
}

// InsertAt returns a copy of items with item inserted at index, clamped to
// the slice bounds. An entity already present with the same id is replaced.
func InsertAt[T Entity[K], K comparable](items []T, index int, item T) []T {
	if replaced, ok := ReplaceByID[T, K](items, item); ok {
		return replaced
	}
	if index < 0 {
		index = 0
	}
	if index > len(items) {
		index = len(items)
	}
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:index]...)
	out = append(out, item)
	out = append(out, items[index:]...)
	return out
}

// Page is the 1-indexed pagination position of a collection
type Page struct {
	Number     int
	Limit      int
	Total      int
	TotalPages int
}

// HasMore reports whether a further page exists
func (p Page) HasMore() bool {
	return p.Number < p.TotalPages
}

// Next returns the page number after the current one
func (p Page) Next() int {
	if p.Number < 1 {
		return 1
	}
	return p.Number + 1
}

// Apply folds a fetched page into the collection: page 1 replaces, later pages merge
func Apply[T Entity[K], K comparable](existing, fetched []T, page int) []T {
	if page <= 1 {
		return Dedupe[T, K](fetched)
	}
	return MergeByID[T, K](existing, fetched)
}
