package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanaflu/techzone/internal/domain"
	"github.com/hanaflu/techzone/internal/notify"
)

type backendCall struct {
	method string
	path   string
	body   map[string]interface{}
}

// fakeBackend records requests and replies with a canned cart.
func fakeBackend(t *testing.T, status int, cart *domain.Cart, calls *[]backendCall) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := backendCall{method: r.Method, path: r.URL.Path}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&call.body)
		}
		*calls = append(*calls, call)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if cart != nil {
			_ = json.NewEncoder(w).Encode(cart)
		} else {
			_, _ = w.Write([]byte(`{}`))
		}
	}))
}

func TestAccountGetCart(t *testing.T) {
	var calls []backendCall
	want := &domain.Cart{
		ID:         "c-1",
		CustomerID: "cust-1",
		Items: []domain.CartLine{
			{Product: snapshot("p1", "Mouse", 10), Quantity: 2},
		},
	}
	srv := fakeBackend(t, http.StatusOK, want, &calls)
	defer srv.Close()

	a := NewAccountStore(srv.URL, notify.NewBroadcaster())
	cart, err := a.GetCart(context.Background(), "cust-1")
	require.NoError(t, err)

	assert.Equal(t, "c-1", cart.ID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].method)
	assert.Equal(t, "/api/v1/carts/cust-1", calls[0].path)
}

func TestAccountAddLine_SendsSnapshot(t *testing.T) {
	var calls []backendCall
	srv := fakeBackend(t, http.StatusCreated, &domain.Cart{CustomerID: "cust-1"}, &calls)
	defer srv.Close()

	bus := notify.NewBroadcaster()
	ch, cancel := bus.Subscribe()
	defer cancel()

	a := NewAccountStore(srv.URL, bus)
	_, err := a.AddLine(context.Background(), "cust-1", snapshot("p1", "Mouse", 10), 3)
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.Equal(t, "/api/v1/carts/cust-1/items", calls[0].path)
	assert.Equal(t, "p1", calls[0].body["product_id"])
	assert.Equal(t, float64(3), calls[0].body["quantity"])

	select {
	case <-ch:
	default:
		t.Fatal("mutation did not broadcast cart changed")
	}
}

func TestAccountSetLineQuantity_Path(t *testing.T) {
	var calls []backendCall
	srv := fakeBackend(t, http.StatusOK, &domain.Cart{CustomerID: "cust-1"}, &calls)
	defer srv.Close()

	a := NewAccountStore(srv.URL, notify.NewBroadcaster())
	_, err := a.SetLineQuantity(context.Background(), "cust-1", "p1", 5)
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPut, calls[0].method)
	assert.Equal(t, "/api/v1/carts/cust-1/items/p1", calls[0].path)
	assert.Equal(t, float64(5), calls[0].body["quantity"])
}

func TestAccountSetLineQuantity_MissingLine(t *testing.T) {
	var calls []backendCall
	srv := fakeBackend(t, http.StatusNotFound, nil, &calls)
	defer srv.Close()

	a := NewAccountStore(srv.URL, notify.NewBroadcaster())
	_, err := a.SetLineQuantity(context.Background(), "cust-1", "ghost", 5)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestAccountGetCart_MissingCartIsEmpty(t *testing.T) {
	var calls []backendCall
	srv := fakeBackend(t, http.StatusNotFound, nil, &calls)
	defer srv.Close()

	a := NewAccountStore(srv.URL, notify.NewBroadcaster())
	cart, err := a.GetCart(context.Background(), "cust-1")
	require.NoError(t, err)

	assert.Equal(t, "cust-1", cart.CustomerID)
	assert.True(t, cart.IsEmpty())
}

func TestAccountClear_MissingCartIsDone(t *testing.T) {
	var calls []backendCall
	srv := fakeBackend(t, http.StatusNotFound, nil, &calls)
	defer srv.Close()

	a := NewAccountStore(srv.URL, notify.NewBroadcaster())
	assert.NoError(t, a.Clear(context.Background(), "cust-1"))
}

// A run of 404s is user traffic, not backend trouble, and must not open the
// circuit. Ten in a row is well past the breaker's consecutive-failure trip
// point.
func TestAccountMissingLinesDoNotTripBreaker(t *testing.T) {
	var calls []backendCall
	srv := fakeBackend(t, http.StatusNotFound, nil, &calls)
	defer srv.Close()

	a := NewAccountStore(srv.URL, notify.NewBroadcaster())
	for i := 0; i < 10; i++ {
		_, err := a.SetLineQuantity(context.Background(), "cust-1", "ghost", 5)
		assert.ErrorIs(t, err, ErrLineNotFound)
	}
	require.Len(t, calls, 10, "every request must reach the backend")
}

func TestAccountGetCart_NetworkError(t *testing.T) {
	var calls []backendCall
	srv := fakeBackend(t, http.StatusOK, nil, &calls)
	srv.Close() // refuse connections

	a := NewAccountStore(srv.URL, notify.NewBroadcaster())
	_, err := a.GetCart(context.Background(), "cust-1")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "get cart", fetchErr.Op)
}

func TestAccountGetCart_BackendError(t *testing.T) {
	var calls []backendCall
	srv := fakeBackend(t, http.StatusInternalServerError, nil, &calls)
	defer srv.Close()

	a := NewAccountStore(srv.URL, notify.NewBroadcaster())
	_, err := a.GetCart(context.Background(), "cust-1")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestAccountClear(t *testing.T) {
	var calls []backendCall
	srv := fakeBackend(t, http.StatusOK, &domain.Cart{CustomerID: "cust-1"}, &calls)
	defer srv.Close()

	a := NewAccountStore(srv.URL, notify.NewBroadcaster())
	require.NoError(t, a.Clear(context.Background(), "cust-1"))

	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodDelete, calls[0].method)
	assert.Equal(t, "/api/v1/carts/cust-1", calls[0].path)
}
