// Package ledger holds the client-side copy of an owner's transactions and
// reconciles it against fetched snapshots, confirmed writes and pushed
// change events.
package ledger

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"budgetwise/internal/models"
)

// Store holds the transactions of exactly one owner, newest date first.
// Ties are ordered by creation time (newest first) and then by ID so the
// order is total. IDs removed during the owner's session are remembered so a
// late insert echo cannot bring them back.
//
// Dates are held as UTC calendar dates whatever zone they arrived in. An
// optional window limits which dates the store accepts.
type Store struct {
	mu      sync.RWMutex
	owner   string
	items   []models.Transaction
	deleted map[string]struct{}
	version uint64

	from time.Time // inclusive, zero is open
	to   time.Time // exclusive, zero is open
}

// NewStore returns an empty store with no owner.
func NewStore() *Store {
	return &Store{deleted: map[string]struct{}{}}
}

// Owner returns the owner whose transactions the store holds.
func (s *Store) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// Version increases on every mutation that changes the contents.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the number of held transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot returns a copy of the held transactions in display order.
func (s *Store) Snapshot() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// SetWindow limits the store to transactions dated within [from, to], both
// inclusive calendar dates; a zero bound is open. Held transactions outside
// the new window are dropped.
func (s *Store) SetWindow(from, to time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.from, s.to = time.Time{}, time.Time{}
	if !from.IsZero() {
		s.from = models.DateOf(from)
	}
	if !to.IsZero() {
		s.to = models.DateOf(to).AddDate(0, 0, 1)
	}

	kept := slices.DeleteFunc(slices.Clone(s.items), func(tx models.Transaction) bool { return !s.inWindow(tx.Date) })
	if len(kept) != len(s.items) {
		s.items = kept
		s.version++
	}
}

// inWindow must be called with s.mu held.
func (s *Store) inWindow(date time.Time) bool {
	if !s.from.IsZero() && date.Before(s.from) {
		return false
	}
	if !s.to.IsZero() && !date.Before(s.to) {
		return false
	}
	return true
}

// Reset switches the store to owner and drops everything it held.
func (s *Store) Reset(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = owner
	s.items = nil
	s.deleted = map[string]struct{}{}
	s.version++
}

// RemoveAll drops every held transaction and remembers their IDs as deleted.
func (s *Store) RemoveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markDeleted()
	for _, tx := range s.items {
		s.markDeleted(tx.ID)
	}
	s.items = nil
	s.version++
}

// Replace swaps the whole contents for snapshot. Records of other owners,
// IDs already deleted and duplicate IDs (keeping the most recently updated)
// are dropped. Switching owner forgets the previous owner's deletions.
func (s *Store) Replace(owner string, snapshot []models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner != s.owner {
		s.deleted = map[string]struct{}{}
	}

	byID := make(map[string]int, len(snapshot))
	items := make([]models.Transaction, 0, len(snapshot))
	for _, tx := range snapshot {
		tx = normalize(tx)
		if tx.OwnerID != owner || tx.ID == "" || !s.inWindow(tx.Date) {
			continue
		}
		if _, gone := s.deleted[tx.ID]; gone {
			continue
		}
		if i, dup := byID[tx.ID]; dup {
			if !tx.UpdatedAt.Before(items[i].UpdatedAt) {
				items[i] = tx
			}
			continue
		}
		byID[tx.ID] = len(items)
		items = append(items, tx)
	}
	slices.SortFunc(items, compareTransactions)

	s.owner = owner
	s.items = items
	s.version++
}

// UpsertOne inserts tx or overwrites the held copy with the same ID. It
// reports whether the store changed: identical records, records older than
// the held copy, deleted IDs and records of other owners are ignored. A
// record dated outside the window is not inserted, and a held copy that an
// update moves outside the window is dropped.
func (s *Store) UpsertOne(tx models.Transaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx = normalize(tx)
	if tx.ID == "" || tx.OwnerID != s.owner {
		return false
	}
	if _, gone := s.deleted[tx.ID]; gone {
		return false
	}

	i := slices.IndexFunc(s.items, func(held models.Transaction) bool { return held.ID == tx.ID })
	if i >= 0 {
		held := s.items[i]
		if sameTransaction(held, tx) {
			return false
		}
		if !tx.UpdatedAt.IsZero() && tx.UpdatedAt.Before(held.UpdatedAt) {
			return false
		}
		s.items = slices.Delete(slices.Clone(s.items), i, i+1)
	} else {
		s.items = slices.Clone(s.items)
	}

	if !s.inWindow(tx.Date) {
		if i < 0 {
			return false
		}
		s.version++
		return true
	}

	pos, _ := slices.BinarySearchFunc(s.items, tx, compareTransactions)
	s.items = slices.Insert(s.items, pos, tx)
	s.version++
	return true
}

// RemoveOne drops the transaction with the given ID, reporting whether it
// was held. The ID is remembered as deleted either way.
func (s *Store) RemoveOne(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markDeleted(id)
	i := slices.IndexFunc(s.items, func(held models.Transaction) bool { return held.ID == id })
	if i < 0 {
		return false
	}
	s.items = slices.Delete(slices.Clone(s.items), i, i+1)
	s.version++
	return true
}

// markDeleted must be called with s.mu held.
func (s *Store) markDeleted(ids ...string) {
	if s.deleted == nil {
		s.deleted = map[string]struct{}{}
	}
	for _, id := range ids {
		s.deleted[id] = struct{}{}
	}
}

// normalize brings tx.Date back to the UTC calendar date it was stored as.
// Postgres and RFC3339 payloads may deliver the same instant in another zone.
func normalize(tx models.Transaction) models.Transaction {
	tx.Date = models.DateOf(tx.Date.UTC())
	return tx
}

func compareTransactions(a, b models.Transaction) int {
	if c := b.Date.Compare(a.Date); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func sameTransaction(a, b models.Transaction) bool {
	return a.ID == b.ID &&
		a.OwnerID == b.OwnerID &&
		a.Kind == b.Kind &&
		a.Amount.Equal(b.Amount) &&
		a.Category == b.Category &&
		a.Description == b.Description &&
		a.Date.Equal(b.Date) &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}
