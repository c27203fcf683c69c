package core

import (
	"context"
	"sync"
	"time"
)

// DefaultHistoryLimit is the page size used when List is called with limit <= 0.
const DefaultHistoryLimit = 20

// MaxHistoryLimit caps a single List call.
const MaxHistoryLimit = 100

// HistoryStore persists completed extractions.
type HistoryStore interface {
	// Save stores a completed extraction. IDs are unique.
	Save(ctx context.Context, e *Extraction) error

	// Get returns one extraction or ErrExtractionNotFound.
	Get(ctx context.Context, id string) (*Extraction, error)

	// List returns the most recent extractions, newest first.
	List(ctx context.Context, limit int) ([]ExtractionSummary, error)

	// Prune deletes extractions created before cutoff and returns the count.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// clampLimit normalizes a List page size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// MemoryStore is a bounded in-memory HistoryStore. When full, the oldest
// record is evicted.
type MemoryStore struct {
	mu      sync.RWMutex
	limit   int
	records []*Extraction // oldest first
}

// NewMemoryStore creates a store holding at most limit records.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = MaxHistoryLimit
	}
	return &MemoryStore{limit: limit}
}

// Save implements HistoryStore.
func (m *MemoryStore) Save(_ context.Context, e *Extraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, e)
	if over := len(m.records) - m.limit; over > 0 {
		m.records = append(m.records[:0:0], m.records[over:]...)
	}
	return nil
}

// Get implements HistoryStore.
func (m *MemoryStore) Get(_ context.Context, id string) (*Extraction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.records {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrExtractionNotFound
}

// List implements HistoryStore.
func (m *MemoryStore) List(_ context.Context, limit int) ([]ExtractionSummary, error) {
	limit = clampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ExtractionSummary, 0, min(limit, len(m.records)))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i].Summary())
	}
	return out, nil
}

// Prune implements HistoryStore.
func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	var removed int64
	for _, e := range m.records {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// Clear the tail so evicted records can be collected.
	for i := len(kept); i < len(m.records); i++ {
		m.records[i] = nil
	}
	m.records = kept
	return removed, nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
