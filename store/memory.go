package store

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// MemoryAdapter is an in-memory Adapter implementation. It serves as the
// reference semantics for the Adapter contract and as the storage
// back-end in tests. Thread-safe; one transaction may be open at a time.
type MemoryAdapter struct {
	mu    sync.RWMutex
	blobs map[string]map[uint64][]byte

	// Transaction overlay: pending writes (nil data marks a delete).
	// Reads inside the transaction see their own writes.
	inTx    bool
	pending map[string]map[uint64][]byte
}

// NewMemoryAdapter creates an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{blobs: make(map[string]map[uint64][]byte)}
}

// Get returns the blob for the key, or ErrNotFound.
func (m *MemoryAdapter) Get(_ context.Context, value string, segnum uint64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.inTx {
		if segs, ok := m.pending[value]; ok {
			if data, ok := segs[segnum]; ok {
				if data == nil {
					return nil, ErrNotFound
				}
				return slices.Clone(data), nil
			}
		}
	}
	data, ok := m.blobs[value][segnum]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

// Put writes the blob for the key.
func (m *MemoryAdapter) Put(_ context.Context, value string, segnum uint64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(value, segnum, slices.Clone(data))
	return nil
}

// Delete removes the blob for the key.
func (m *MemoryAdapter) Delete(_ context.Context, value string, segnum uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inTx {
		m.set(value, segnum, nil)
		return nil
	}
	delete(m.blobs[value], segnum)
	return nil
}

func (m *MemoryAdapter) set(value string, segnum uint64, data []byte) {
	target := m.blobs
	if m.inTx {
		target = m.pending
	}
	segs, ok := target[value]
	if !ok {
		segs = make(map[uint64][]byte)
		target[value] = segs
	}
	segs[segnum] = data
}

// Scan returns every entry for the value in ascending segment order.
func (m *MemoryAdapter) Scan(_ context.Context, value string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	merged := make(map[uint64][]byte, len(m.blobs[value]))
	for segnum, data := range m.blobs[value] {
		merged[segnum] = data
	}
	if m.inTx {
		for segnum, data := range m.pending[value] {
			if data == nil {
				delete(merged, segnum)
			} else {
				merged[segnum] = data
			}
		}
	}

	entries := make([]Entry, 0, len(merged))
	for segnum, data := range merged {
		entries = append(entries, Entry{Segment: segnum, Data: slices.Clone(data)})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		switch {
		case a.Segment < b.Segment:
			return -1
		case a.Segment > b.Segment:
			return 1
		default:
			return 0
		}
	})
	return entries, nil
}

// Begin starts a transaction.
func (m *MemoryAdapter) Begin(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inTx {
		return errors.New("transaction already open")
	}
	m.inTx = true
	m.pending = make(map[string]map[uint64][]byte)
	return nil
}

// Commit applies all pending writes atomically.
func (m *MemoryAdapter) Commit(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inTx {
		return errors.New("no open transaction")
	}
	for value, segs := range m.pending {
		for segnum, data := range segs {
			if data == nil {
				delete(m.blobs[value], segnum)
				continue
			}
			target, ok := m.blobs[value]
			if !ok {
				target = make(map[uint64][]byte)
				m.blobs[value] = target
			}
			target[segnum] = data
		}
	}
	m.inTx, m.pending = false, nil
	return nil
}

// Rollback discards all pending writes.
func (m *MemoryAdapter) Rollback(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inTx {
		return errors.New("no open transaction")
	}
	m.inTx, m.pending = false, nil
	return nil
}
