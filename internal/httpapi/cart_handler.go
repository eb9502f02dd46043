// Package httpapi is the storefront-facing HTTP layer. It routes each cart
// operation to the guest or account backend depending on who owns the
// session, applies the stock checks before any mutation, and returns the
// transient notifications the page renders as toasts.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hanaflu/techzone/internal/catalog"
	"github.com/hanaflu/techzone/internal/domain"
	"github.com/hanaflu/techzone/internal/merge"
	"github.com/hanaflu/techzone/internal/notify"
	"github.com/hanaflu/techzone/internal/stock"
	"github.com/hanaflu/techzone/internal/store"
)

// ProductGetter is the slice of the catalog client the handlers need.
type ProductGetter interface {
	GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error)
}

type CartHandler struct {
	guest   store.CartStore
	account store.CartStore
	catalog ProductGetter
	merger  *merge.Merger
}

func NewCartHandler(guest, account store.CartStore, catalog ProductGetter, merger *merge.Merger) *CartHandler {
	return &CartHandler{
		guest:   guest,
		account: account,
		catalog: catalog,
		merger:  merger,
	}
}

// Routes mounts the storefront cart endpoints on a fresh router.
func (h *CartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetCart)
	r.Post("/items", h.AddItem)
	r.Put("/items/{product_id}", h.UpdateQuantity)
	r.Delete("/items/{product_id}", h.RemoveItem)
	r.Post("/merge", h.Merge)
	return r
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// cartResponse is the envelope every cart endpoint returns: the current
// cart plus the transient notifications produced by the operation.
type cartResponse struct {
	Cart          *domain.Cart          `json:"cart"`
	Notifications []notify.Notification `json:"notifications"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// storeFor picks the backend and owner key for the request's identity: the
// account cart when a customer is authenticated, the session's guest cart
// otherwise.
func (h *CartHandler) storeFor(r *http.Request) (store.CartStore, string) {
	if customerID := customerIDFromContext(r.Context()); customerID != "" {
		return h.account, customerID
	}
	return h.guest, sessionIDFromContext(r.Context())
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartStore, owner := h.storeFor(r)

	cart, err := cartStore.GetCart(r.Context(), owner)
	if err != nil {
		var fetchErr *store.FetchError
		if errors.As(err, &fetchErr) {
			// Unavailable is not empty; the page must not render a bare cart.
			respondError(w, http.StatusServiceUnavailable, "cart_unavailable", "cart is temporarily unavailable")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read cart")
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{Cart: cart})
}

// AddItem puts one unit of a product into the cart (the add-to-cart
// button); quantity adjustments go through UpdateQuantity.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		log.Printf("add item: catalog lookup failed for %s: %v", req.ProductID, err)
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to look up product")
		return
	}

	cartStore, owner := h.storeFor(r)
	cart, err := cartStore.GetCart(r.Context(), owner)
	if err != nil {
		h.respondStoreError(w, "add item", err)
		return
	}

	rec := notify.NewRecorder()
	if !stock.ValidateAddOne(product, cart.QuantityOf(product.ID), rec) {
		respondJSON(w, http.StatusConflict, cartResponse{Cart: cart, Notifications: rec.Notifications()})
		return
	}

	updated, err := cartStore.AddLine(r.Context(), owner, product, 1)
	if err != nil {
		h.respondStoreError(w, "add item", err)
		return
	}

	rec.Success(fmt.Sprintf("%s added to your cart", product.Name))
	respondJSON(w, http.StatusCreated, cartResponse{Cart: updated, Notifications: rec.Notifications()})
}

// UpdateQuantity sets a line to an absolute quantity (the +/- stepper).
// Validation uses the line's product snapshot, the same stock the line was
// added under.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}

	cartStore, owner := h.storeFor(r)
	cart, err := cartStore.GetCart(r.Context(), owner)
	if err != nil {
		h.respondStoreError(w, "update quantity", err)
		return
	}

	line := cart.Find(productID)
	if line == nil {
		respondError(w, http.StatusNotFound, "not_found", "item not found in cart")
		return
	}

	rec := notify.NewRecorder()
	if !stock.ValidateSetQuantity(line.Product, req.Quantity, rec) {
		respondJSON(w, http.StatusConflict, cartResponse{Cart: cart, Notifications: rec.Notifications()})
		return
	}

	updated, err := cartStore.SetLineQuantity(r.Context(), owner, productID, req.Quantity)
	if errors.Is(err, store.ErrLineNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "item not found in cart")
		return
	}
	if err != nil {
		h.respondStoreError(w, "update quantity", err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{Cart: updated, Notifications: rec.Notifications()})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	cartStore, owner := h.storeFor(r)
	updated, err := cartStore.RemoveLine(r.Context(), owner, productID)
	if err != nil {
		h.respondStoreError(w, "remove item", err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{Cart: updated})
}

// Merge is fired by the login flow once the customer identity becomes
// known; it transfers the session's guest cart into the account cart.
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	customerID := customerIDFromContext(r.Context())
	if customerID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "merge requires an authenticated customer")
		return
	}
	sessionID := sessionIDFromContext(r.Context())

	rec := notify.NewRecorder()
	result, err := h.merger.Merge(r.Context(), sessionID, customerID, rec)
	if err != nil {
		log.Printf("merge failed for session %s: %v", sessionID, err)
		respondJSON(w, http.StatusInternalServerError, cartResponse{Notifications: rec.Notifications()})
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{Cart: result.Cart, Notifications: rec.Notifications()})
}

// respondStoreError maps a cart-store failure for a user-initiated
// operation: backend unavailability is distinguished from everything else,
// and nothing fails silently.
func (h *CartHandler) respondStoreError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s failed: %v", op, err)
	var fetchErr *store.FetchError
	if errors.As(err, &fetchErr) {
		respondError(w, http.StatusServiceUnavailable, "cart_unavailable", "cart is temporarily unavailable")
		return
	}
	respondError(w, http.StatusInternalServerError, "internal_error", fmt.Sprintf("failed to %s", op))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
