package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryRemote is an in-memory RemoteStore. It backs local development
// without Firestore credentials and failure injection in tests.
type MemoryRemote struct {
	mu          sync.RWMutex
	collections map[string]map[string]Record
	seq         int
	failErr     error
}

// NewMemoryRemote builds an empty in-memory store
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{collections: make(map[string]map[string]Record)}
}

// SetFailing makes every subsequent call fail with the given error until
// called again with nil. Used to simulate an unreachable remote.
func (m *MemoryRemote) SetFailing(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

// Fail is a convenience toggle around SetFailing
func (m *MemoryRemote) Fail(on bool) {
	if on {
		m.SetFailing(errors.New("memremote: injected failure"))
	} else {
		m.SetFailing(nil)
	}
}

func (m *MemoryRemote) failing() error {
	return m.failErr
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// GetDocument returns one document by ID
func (m *MemoryRemote) GetDocument(ctx context.Context, collection, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failing(); err != nil {
		return nil, err
	}
	docs, ok := m.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneRecord(rec)
	out["id"] = id
	return out, nil
}

// Query filters, orders and limits the collection's documents
func (m *MemoryRemote) Query(ctx context.Context, collection string, filters []Filter, orders []Order, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failing(); err != nil {
		return nil, err
	}

	var out []Record
	for id, rec := range m.collections[collection] {
		if !matchesFilters(rec, filters) {
			continue
		}
		c := cloneRecord(rec)
		c["id"] = id
		out = append(out, c)
	}

	for i := len(orders) - 1; i >= 0; i-- {
		ord := orders[i]
		sort.SliceStable(out, func(a, b int) bool {
			av := fmt.Sprint(out[a][ord.Field])
			bv := fmt.Sprint(out[b][ord.Field])
			if ord.Desc {
				return av > bv
			}
			return av < bv
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Subscribe emits one snapshot of the matching documents, then closes when
// ctx is canceled.
func (m *MemoryRemote) Subscribe(ctx context.Context, collection string, filters []Filter) (<-chan []Record, error) {
	m.mu.RLock()
	if err := m.failing(); err != nil {
		m.mu.RUnlock()
		return nil, err
	}
	m.mu.RUnlock()

	ch := make(chan []Record, 1)
	snapshot, err := m.Query(ctx, collection, filters, nil, 0)
	if err == nil {
		ch <- snapshot
	}
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

// CreateDocument adds a document and returns its generated ID
func (m *MemoryRemote) CreateDocument(ctx context.Context, collection string, data Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(); err != nil {
		return "", err
	}
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Record)
	}
	m.seq++
	id := fmt.Sprintf("doc-%d", m.seq)
	m.collections[collection][id] = cloneRecord(data)
	return id, nil
}

// UpdateDocument merges fields into the document, creating it when absent
func (m *MemoryRemote) UpdateDocument(ctx context.Context, collection, id string, data Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(); err != nil {
		return err
	}
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Record)
	}
	existing, ok := m.collections[collection][id]
	if !ok {
		existing = make(Record)
	}
	for k, v := range data {
		existing[k] = v
	}
	m.collections[collection][id] = existing
	return nil
}

// DeleteDocument removes a document; deleting a missing one is a no-op
func (m *MemoryRemote) DeleteDocument(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(); err != nil {
		return err
	}
	if docs, ok := m.collections[collection]; ok {
		delete(docs, id)
	}
	return nil
}

// Count reports how many documents a collection holds
func (m *MemoryRemote) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func matchesFilters(rec Record, filters []Filter) bool {
	for _, f := range filters {
		got := fmt.Sprint(rec[f.Field])
		want := fmt.Sprint(f.Value)
		switch f.Op {
		case "==":
			if got != want {
				return false
			}
		case "<":
			if !(strings.Compare(got, want) < 0) {
				return false
			}
		case "<=":
			if !(strings.Compare(got, want) <= 0) {
				return false
			}
		case ">":
			if !(strings.Compare(got, want) > 0) {
				return false
			}
		case ">=":
			if !(strings.Compare(got, want) >= 0) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
