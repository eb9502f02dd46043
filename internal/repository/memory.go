package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hanaflu/techzone/internal/domain"
)

// MemoryRepository is an in-memory CartRepository for local runs and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart // customerID -> cart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string]*domain.Cart)}
}

func (m *MemoryRepository) GetCart(_ context.Context, customerID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cart, ok := m.carts[customerID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return copyCart(cart), nil
}

func (m *MemoryRepository) AddItem(_ context.Context, customerID string, line domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cart, ok := m.carts[customerID]
	if !ok {
		m.carts[customerID] = &domain.Cart{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			Items:      []domain.CartLine{line},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return nil
	}

	for i := range cart.Items {
		if cart.Items[i].Product.ID == line.Product.ID {
			cart.Items[i].Quantity += line.Quantity
			cart.Items[i].Product = line.Product
			cart.UpdatedAt = now
			return nil
		}
	}
	cart.Items = append(cart.Items, line)
	cart.UpdatedAt = now
	return nil
}

func (m *MemoryRepository) UpdateItemQuantity(_ context.Context, customerID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[customerID]
	if !ok {
		return ErrItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].Product.ID == productID {
			cart.Items[i].Quantity = quantity
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrItemNotFound
}

func (m *MemoryRepository) RemoveItem(_ context.Context, customerID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[customerID]
	if !ok {
		return nil
	}
	for i, line := range cart.Items {
		if line.Product.ID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}

func (m *MemoryRepository) DeleteCart(_ context.Context, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carts[customerID]; !ok {
		return ErrCartNotFound
	}
	delete(m.carts, customerID)
	return nil
}

func copyCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = make([]domain.CartLine, len(c.Items))
	copy(out.Items, c.Items)
	return &out
}
