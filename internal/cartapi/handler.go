// Package cartapi is the REST surface of the cart backend. It exposes one
// server-persisted cart per customer; stock admission is the storefront's
// job, the backend only persists what validated callers send it.
package cartapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hanaflu/techzone/internal/domain"
	"github.com/hanaflu/techzone/internal/repository"
	"github.com/hanaflu/techzone/internal/service"
)

const maxLineQuantity = 99

type Handler struct {
	service *service.CartService
}

func NewHandler(service *service.CartService) *Handler {
	return &Handler{service: service}
}

// Routes mounts the cart endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{customer_id}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{product_id}", h.UpdateQuantity)
		r.Delete("/items/{product_id}", h.RemoveItem)
	})
	return r
}

type addItemRequest struct {
	ProductID string                 `json:"product_id"`
	Quantity  int                    `json:"quantity"`
	Product   domain.ProductSnapshot `json:"product"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	if customerID == "" {
		respondError(w, http.StatusBadRequest, "invalid_customer_id", "customer_id is required")
		return
	}

	cart, err := h.service.GetCart(r.Context(), customerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get cart")
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" || req.Product.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id and product snapshot are required")
		return
	}
	if req.ProductID != req.Product.ID {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id does not match the product snapshot")
		return
	}
	if req.Quantity <= 0 || req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	line := domain.CartLine{Product: req.Product, Quantity: req.Quantity}
	if err := h.service.AddItem(r.Context(), customerID, line); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add item")
		return
	}
	h.respondCart(w, r, customerID, http.StatusCreated)
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	productID := chi.URLParam(r, "product_id")

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 || req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	err := h.service.UpdateQuantity(r.Context(), customerID, productID, req.Quantity)
	if errors.Is(err, repository.ErrItemNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "item not found in cart")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update quantity")
		return
	}
	h.respondCart(w, r, customerID, http.StatusOK)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	productID := chi.URLParam(r, "product_id")

	if err := h.service.RemoveItem(r.Context(), customerID, productID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to remove item")
		return
	}
	h.respondCart(w, r, customerID, http.StatusOK)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	if err := h.service.ClearCart(r.Context(), customerID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}
	h.respondCart(w, r, customerID, http.StatusOK)
}

// respondCart replies with the canonical post-operation cart, the contract
// every mutating endpoint shares.
func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, customerID string, status int) {
	cart, err := h.service.GetCart(r.Context(), customerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read cart back")
		return
	}
	respondJSON(w, status, cart)
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
