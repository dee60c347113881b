package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type CartService interface {
	Add(ctx context.Context, sessionID string, productID int64) error
	Decrease(ctx context.Context, sessionID string, productID int64) error
	RemoveItem(ctx context.Context, sessionID string, productID int64) error
	Clear(ctx context.Context, sessionID string) error
	Snapshot(ctx context.Context, sessionID string) (domain.CartSnapshot, error)
}

type CartHandler struct {
	cart    CartService
	timeout time.Duration
}

func NewCartHandler(cart CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.respondSnapshot(ctx, w, r)
}

// POST /api/v1/cart/items/{product_id}
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.cart.Add)
}

// POST /api/v1/cart/items/{product_id}/decrease
func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.cart.Decrease)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.cart.RemoveItem)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Clear(ctx, getCartSession(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, string, int64) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := op(ctx, getCartSession(r.Context()), productID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.respondSnapshot(ctx, w, r)
}

func (h *CartHandler) respondSnapshot(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.cart.Snapshot(ctx, getCartSession(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if snapshot.Lines == nil {
		snapshot.Lines = []domain.CartSnapshotLine{}
	}

	respondJSON(w, http.StatusOK, snapshot)
}
