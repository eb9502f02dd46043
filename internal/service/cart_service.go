package service

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hanaflu/techzone/internal/cache"
	"github.com/hanaflu/techzone/internal/domain"
	"github.com/hanaflu/techzone/internal/repository"
)

// CartService is the backend-side cart logic: reads go through the cache
// with singleflight stampede protection, mutations go to the repository and
// invalidate the cache.
type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
	}
}

// GetCart returns the customer's cart, or an empty cart if none exists yet.
// Concurrent cache misses for the same customer collapse into one
// repository read.
func (s *CartService) GetCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(customerID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, customerID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // degraded, keep serving from the repo
		}

		cart, errGet := s.repo.GetCart(ctx, customerID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return &domain.Cart{
				CustomerID: customerID,
				Items:      []domain.CartLine{},
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), customerID, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

func (s *CartService) AddItem(ctx context.Context, customerID string, line domain.CartLine) error {
	if err := s.repo.AddItem(ctx, customerID, line); err != nil {
		log.Printf("repo add item error: %v", err)
		return err
	}
	s.invalidate(customerID)
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) error {
	if err := s.repo.UpdateItemQuantity(ctx, customerID, productID, quantity); err != nil {
		log.Printf("repo update quantity error: %v", err)
		return err
	}
	s.invalidate(customerID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, customerID, productID string) error {
	if err := s.repo.RemoveItem(ctx, customerID, productID); err != nil {
		log.Printf("repo remove item error: %v", err)
		return err
	}
	s.invalidate(customerID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, customerID string) error {
	err := s.repo.DeleteCart(ctx, customerID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		log.Printf("repo delete cart error: %v", err)
		return err
	}
	s.invalidate(customerID)
	return nil
}

func (s *CartService) invalidate(customerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, customerID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
