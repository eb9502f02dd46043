package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hanaflu/techzone/internal/domain"
	"github.com/hanaflu/techzone/internal/notify"
)

// guestTTL keeps abandoned guest carts from accumulating forever. The TTL
// slides on every write, so an active session never loses its cart.
const guestTTL = 30 * 24 * time.Hour

// GuestStore persists guest carts as an ordered JSON list of lines keyed by
// session id. It is the server-side stand-in for browser storage: reads and
// writes round-trip the list exactly, and the cart has no server identity.
type GuestStore struct {
	client *redis.Client
	bus    *notify.Broadcaster
}

func NewGuestStore(client *redis.Client, bus *notify.Broadcaster) *GuestStore {
	return &GuestStore{client: client, bus: bus}
}

func guestKey(sessionID string) string {
	return fmt.Sprintf("guest-cart:%s", sessionID)
}

func (g *GuestStore) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	lines, err := g.readLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &domain.Cart{Items: lines}, nil
}

func (g *GuestStore) AddLine(ctx context.Context, sessionID string, product domain.ProductSnapshot, quantity int) (*domain.Cart, error) {
	lines, err := g.readLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range lines {
		if lines[i].Product.ID == product.ID {
			lines[i].Quantity += quantity
			lines[i].Product = product // refresh the snapshot
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, domain.CartLine{Product: product, Quantity: quantity})
	}

	if err := g.writeLines(ctx, sessionID, lines); err != nil {
		return nil, err
	}
	g.bus.Broadcast()
	return &domain.Cart{Items: lines}, nil
}

func (g *GuestStore) SetLineQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	lines, err := g.readLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range lines {
		if lines[i].Product.ID == productID {
			lines[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, ErrLineNotFound
	}

	if err := g.writeLines(ctx, sessionID, lines); err != nil {
		return nil, err
	}
	g.bus.Broadcast()
	return &domain.Cart{Items: lines}, nil
}

func (g *GuestStore) RemoveLine(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	lines, err := g.readLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	kept := lines[:0]
	removed := false
	for _, line := range lines {
		if line.Product.ID == productID {
			removed = true
			continue
		}
		kept = append(kept, line)
	}

	if removed {
		if err := g.writeLines(ctx, sessionID, kept); err != nil {
			return nil, err
		}
		g.bus.Broadcast()
	}
	return &domain.Cart{Items: kept}, nil
}

func (g *GuestStore) Clear(ctx context.Context, sessionID string) error {
	if err := g.client.Del(ctx, guestKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear guest cart: %w", err)
	}
	g.bus.Broadcast()
	return nil
}

func (g *GuestStore) readLines(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	data, err := g.client.Get(ctx, guestKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // no cart yet, created lazily on first add
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("failed to parse guest cart: %w", err)
	}
	return lines, nil
}

func (g *GuestStore) writeLines(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}
	if err := g.client.Set(ctx, guestKey(sessionID), data, guestTTL).Err(); err != nil {
		return fmt.Errorf("failed to write guest cart: %w", err)
	}
	return nil
}
