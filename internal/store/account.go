package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hanaflu/techzone/internal/domain"
	"github.com/hanaflu/techzone/internal/notify"
)

// AccountStore talks to the cart backend's REST API. The backend is
// authoritative: every call returns the canonical post-operation cart.
// Requests run through a circuit breaker so a struggling backend sheds load
// instead of stacking up timeouts.
type AccountStore struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.Cart]
	bus     *notify.Broadcaster
}

func NewAccountStore(baseURL string, bus *notify.Broadcaster) *AccountStore {
	return &AccountStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*domain.Cart](gobreaker.Settings{
			Name:    "cart-backend",
			Timeout: 15 * time.Second,
			// A 404 is an answer, not an outage. Only transport errors
			// and backend 5xx responses should open the circuit.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrLineNotFound) || errors.Is(err, errNoCart)
			},
		}),
		bus: bus,
	}
}

// errNoCart reports a 404 from a whole-cart endpoint. GetCart treats it as an
// empty cart and Clear treats it as already done; it never escapes this file.
var errNoCart = errors.New("no cart for customer")

type addLineRequest struct {
	ProductID string                 `json:"product_id"`
	Quantity  int                    `json:"quantity"`
	Product   domain.ProductSnapshot `json:"product"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (a *AccountStore) GetCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	cart, err := a.do(ctx, "get cart", http.MethodGet, fmt.Sprintf("/api/v1/carts/%s", customerID), nil, errNoCart)
	if errors.Is(err, errNoCart) {
		return &domain.Cart{CustomerID: customerID}, nil
	}
	return cart, err
}

func (a *AccountStore) AddLine(ctx context.Context, customerID string, product domain.ProductSnapshot, quantity int) (*domain.Cart, error) {
	cart, err := a.do(ctx, "add item", http.MethodPost,
		fmt.Sprintf("/api/v1/carts/%s/items", customerID),
		addLineRequest{ProductID: product.ID, Quantity: quantity, Product: product},
		ErrLineNotFound)
	if err != nil {
		return nil, err
	}
	a.bus.Broadcast()
	return cart, nil
}

func (a *AccountStore) SetLineQuantity(ctx context.Context, customerID, productID string, quantity int) (*domain.Cart, error) {
	cart, err := a.do(ctx, "update quantity", http.MethodPut,
		fmt.Sprintf("/api/v1/carts/%s/items/%s", customerID, productID),
		setQuantityRequest{Quantity: quantity}, ErrLineNotFound)
	if err != nil {
		return nil, err
	}
	a.bus.Broadcast()
	return cart, nil
}

func (a *AccountStore) RemoveLine(ctx context.Context, customerID, productID string) (*domain.Cart, error) {
	cart, err := a.do(ctx, "remove item", http.MethodDelete,
		fmt.Sprintf("/api/v1/carts/%s/items/%s", customerID, productID), nil, ErrLineNotFound)
	if err != nil {
		return nil, err
	}
	a.bus.Broadcast()
	return cart, nil
}

func (a *AccountStore) Clear(ctx context.Context, customerID string) error {
	_, err := a.do(ctx, "clear cart", http.MethodDelete,
		fmt.Sprintf("/api/v1/carts/%s", customerID), nil, errNoCart)
	if err != nil && !errors.Is(err, errNoCart) {
		return err
	}
	a.bus.Broadcast()
	return nil
}

// do runs one backend call through the breaker. notFound is what a 404 means
// for the endpoint at hand: a missing line for item paths, a missing cart for
// whole-cart paths.
func (a *AccountStore) do(ctx context.Context, op, method, path string, body interface{}, notFound error) (*domain.Cart, error) {
	cart, err := a.breaker.Execute(func() (*domain.Cart, error) {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
			}
			reader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s request: %w", op, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, &FetchError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, notFound
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &FetchError{Op: op, Err: fmt.Errorf("backend returned status %d", resp.StatusCode)}
		}

		var cart domain.Cart
		if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
			return nil, &FetchError{Op: op, Err: fmt.Errorf("failed to decode cart: %w", err)}
		}
		return &cart, nil
	})
	if err != nil {
		// A rejected call never reached the backend; it is still
		// "cart unavailable" from the caller's point of view.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &FetchError{Op: op, Err: err}
		}
		return nil, err
	}
	return cart, nil
}
