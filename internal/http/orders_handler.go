package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	PrepareCheckout(ctx context.Context, req service.Requester) (*service.CheckoutPreview, error)
	Checkout(ctx context.Context, req service.Requester, addressID, carrierID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, req service.Requester, paidOnly bool) ([]*domain.Order, error)
	GetOrder(ctx context.Context, req service.Requester, reference string) (*domain.Order, error)
	CreatePaymentSession(ctx context.Context, req service.Requester, reference string) (string, error)
	ReconcileSuccess(ctx context.Context, req service.Requester, sessionID string) (*domain.Order, error)
	ReconcileFail(ctx context.Context, req service.Requester, sessionID string) (*domain.Order, error)
	AdvanceState(ctx context.Context, reference string, to domain.OrderState) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type CreateOrderRequest struct {
	AddressID int64 `json:"address_id"`
	CarrierID int64 `json:"carrier_id"`
}

type AdvanceStateRequest struct {
	State domain.OrderState `json:"state"`
}

type OrderItemDTO struct {
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Total       int64  `json:"total"`
}

type OrderResponseDTO struct {
	Reference    string         `json:"reference"`
	CreatedAt    time.Time      `json:"created_at"`
	State        int            `json:"state"`
	StateName    string         `json:"state_name"`
	CarrierName  string         `json:"carrier_name"`
	CarrierPrice int64          `json:"carrier_price"`
	Delivery     string         `json:"delivery"`
	Items        []OrderItemDTO `json:"items"`
	ItemsTotal   int64          `json:"items_total"`
	Total        int64          `json:"total"`
}

type PaymentSessionResponse struct {
	URL string `json:"url"`
}

type PaymentResultResponse struct {
	Status string           `json:"status"`
	Order  OrderResponseDTO `json:"order"`
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Total:       item.Total,
		})
	}

	return OrderResponseDTO{
		Reference:    o.Reference,
		CreatedAt:    o.CreatedAt,
		State:        int(o.State),
		StateName:    o.State.String(),
		CarrierName:  o.CarrierName,
		CarrierPrice: o.CarrierPrice,
		Delivery:     o.Delivery,
		Items:        items,
		ItemsTotal:   o.ItemsTotal(),
		Total:        o.Total(),
	}
}

func requester(r *http.Request) service.Requester {
	return service.Requester{
		UserID:      getUserIDFromContext(r.Context()),
		CartSession: getCartSession(r.Context()),
	}
}

// GET /api/v1/checkout
func (h *OrdersHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	preview, err := h.orders.PrepareCheckout(ctx, requester(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, preview)
}

// POST /api/v1/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.Checkout(ctx, requester(r), req.AddressID, req.CarrierID)
	RecordOrderOperation("create", err == nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}

// GET /api/v1/orders?paid=true
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	paidOnly := r.URL.Query().Get("paid") == "true"
	orders, err := h.orders.ListOrders(ctx, requester(r), paidOnly)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/orders/{reference}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reference, ok := stringParam(w, r, "reference")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, requester(r), reference)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// POST /api/v1/orders/{reference}/payment
//
// Responds 303 with the hosted payment page in Location; the body repeats
// the url for clients that do not follow redirects.
func (h *OrdersHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reference, ok := stringParam(w, r, "reference")
	if !ok {
		return
	}

	url, err := h.orders.CreatePaymentSession(ctx, requester(r), reference)
	RecordOrderOperation("payment_session", err == nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", url)
	respondJSON(w, http.StatusSeeOther, PaymentSessionResponse{URL: url})
}

// GET /api/v1/payment/success/{session_id}
func (h *OrdersHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, "reconcile_success", "paid", h.orders.ReconcileSuccess)
}

// GET /api/v1/payment/fail/{session_id}
func (h *OrdersHandler) PaymentFail(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, "reconcile_fail", "failed", h.orders.ReconcileFail)
}

func (h *OrdersHandler) reconcile(
	w http.ResponseWriter,
	r *http.Request,
	operation, status string,
	fn func(context.Context, service.Requester, string) (*domain.Order, error),
) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, ok := stringParam(w, r, "session_id")
	if !ok {
		return
	}

	order, err := fn(ctx, requester(r), sessionID)
	RecordOrderOperation(operation, err == nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PaymentResultResponse{Status: status, Order: convertOrder(order)})
}

// PUT /api/v1/admin/orders/{reference}/state
func (h *OrdersHandler) AdvanceState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reference, ok := stringParam(w, r, "reference")
	if !ok {
		return
	}

	var req AdvanceStateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.State.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_state", "state must be between 0 and 3")
		return
	}

	order, err := h.orders.AdvanceState(ctx, reference, req.State)
	RecordOrderOperation("advance_state", err == nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

func stringParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := chi.URLParam(r, name)
	if value == "" {
		respondError(w, http.StatusBadRequest, "missing_"+name, name+" is required")
		return "", false
	}
	return value, true
}
