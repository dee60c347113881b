package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type memoryStore struct {
	mu    sync.Mutex
	carts map[string]map[int64]int
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{carts: make(map[string]map[int64]int)}
}

func (m *memoryStore) Lines(_ context.Context, sessionID string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var lines []domain.CartLine
	for id, q := range m.carts[sessionID] {
		lines = append(lines, domain.CartLine{ProductID: id, Quantity: q})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (m *memoryStore) Increment(_ context.Context, sessionID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.carts[sessionID] == nil {
		m.carts[sessionID] = make(map[int64]int)
	}
	m.carts[sessionID][productID]++
	return nil
}

func (m *memoryStore) Decrement(_ context.Context, sessionID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	q, ok := m.carts[sessionID][productID]
	if !ok {
		return nil
	}
	if q < 2 {
		delete(m.carts[sessionID], productID)
		return nil
	}
	m.carts[sessionID][productID] = q - 1
	return nil
}

func (m *memoryStore) Remove(_ context.Context, sessionID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.carts[sessionID], productID)
	return nil
}

func (m *memoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.carts, sessionID)
	return nil
}

type mockCatalog struct {
	products map[int64]domain.Product
	err      error
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}
