package ledger

import (
	"cmp"
	"slices"
	"sync"

	"budgetwise/internal/models"
)

// Collection is a small ID-keyed set of records kept in a fixed order. Like
// Store it remembers removed IDs until cleared, so late echoes of a deleted
// record are ignored.
type Collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	deleted map[string]struct{}
	id      func(T) string
	compare func(a, b T) int
	version uint64
}

// NewCollection returns an empty collection keyed by id and ordered by compare.
func NewCollection[T any](id func(T) string, compare func(a, b T) int) *Collection[T] {
	return &Collection[T]{id: id, compare: compare, deleted: map[string]struct{}{}}
}

// NewBudgets returns a collection of budgets ordered by category.
func NewBudgets() *Collection[models.Budget] {
	return NewCollection(
		func(b models.Budget) string { return b.ID },
		func(a, b models.Budget) int {
			if c := cmp.Compare(a.Category, b.Category); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		},
	)
}

// NewInvestments returns a collection of investments, latest purchase first.
func NewInvestments() *Collection[models.Investment] {
	return NewCollection(
		func(i models.Investment) string { return i.ID },
		func(a, b models.Investment) int {
			if c := b.PurchaseDate.Compare(a.PurchaseDate); c != 0 {
				return c
			}
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		},
	)
}

// Items returns a copy of the records.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Version increases on every change.
func (c *Collection[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Replace swaps the contents for items, dropping duplicate and removed IDs.
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(items))
	next := make([]T, 0, len(items))
	for _, item := range items {
		key := c.id(item)
		if key == "" || seen[key] {
			continue
		}
		if _, gone := c.deleted[key]; gone {
			continue
		}
		seen[key] = true
		next = append(next, item)
	}
	slices.SortFunc(next, c.compare)

	c.items = next
	c.version++
}

// Upsert inserts item or replaces the record with the same ID. It reports
// whether the collection changed; removed IDs are ignored.
func (c *Collection[T]) Upsert(item T) bool {
	key := c.id(item)
	if key == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, gone := c.deleted[key]; gone {
		return false
	}
	next := slices.DeleteFunc(slices.Clone(c.items), func(held T) bool { return c.id(held) == key })
	pos, _ := slices.BinarySearchFunc(next, item, c.compare)
	c.items = slices.Insert(next, pos, item)
	c.version++
	return true
}

// Remove drops the record with the given ID, reporting whether it was held.
// The ID is remembered as removed either way.
func (c *Collection[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleted[id] = struct{}{}
	i := slices.IndexFunc(c.items, func(held T) bool { return c.id(held) == id })
	if i < 0 {
		return false
	}
	c.items = slices.Delete(slices.Clone(c.items), i, i+1)
	c.version++
	return true
}

// Clear empties the collection and forgets removed IDs.
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.deleted = map[string]struct{}{}
	c.version++
}
