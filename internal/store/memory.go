package store

import (
	"context"
	"sync"

	"github.com/JonMunkholm/tablecheck/internal/report"
)

// DefaultMemoryCapacity is used when NewMemory is given no capacity.
const DefaultMemoryCapacity = 100

// Memory keeps the most recent reports in process memory. Saving beyond
// capacity evicts the oldest report.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	docs     map[string]*report.Document
	order    []string // oldest first
}

// NewMemory creates an in-memory store holding at most capacity reports.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{
		capacity: capacity,
		docs:     make(map[string]*report.Document),
	}
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, doc *report.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[doc.ID]; !exists {
		m.order = append(m.order, doc.ID)
	}
	m.docs[doc.ID] = doc

	for len(m.order) > m.capacity {
		delete(m.docs, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, id string) (*report.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

// List implements Store.
func (m *Memory) List(_ context.Context, limit int) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = listLimit(limit)
	out := make([]Summary, 0, min(limit, len(m.order)))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, summarize(m.docs[m.order[i]]))
	}
	return out, nil
}

// Len returns the number of stored reports.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
