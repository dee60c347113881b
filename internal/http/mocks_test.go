package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

// --- Mocks ---

type mockCatalog struct {
	products   []*domain.Product
	categories []domain.Category
	carriers   []domain.Carrier
	headers    []domain.Header
	err        error

	lastSearch domain.Search
}

func (m *mockCatalog) ListProducts(_ context.Context, search domain.Search) ([]*domain.Product, error) {
	m.lastSearch = search
	return m.products, m.err
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *mockCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	return m.categories, m.err
}

func (m *mockCatalog) ListCarriers(context.Context) ([]domain.Carrier, error) {
	return m.carriers, m.err
}

func (m *mockCatalog) ListHeaders(context.Context) ([]domain.Header, error) {
	return m.headers, m.err
}

type mockContact struct {
	last domain.ContactRequest
	err  error
}

func (m *mockContact) Submit(_ context.Context, req domain.ContactRequest) error {
	m.last = req
	return m.err
}

type mockCart struct {
	lines map[string]map[int64]int
	price int64
	err   error
}

func newMockCart() *mockCart {
	return &mockCart{lines: map[string]map[int64]int{}, price: 1000}
}

func (m *mockCart) Add(_ context.Context, session string, productID int64) error {
	if m.err != nil {
		return m.err
	}
	if m.lines[session] == nil {
		m.lines[session] = map[int64]int{}
	}
	m.lines[session][productID]++
	return nil
}

func (m *mockCart) Decrease(_ context.Context, session string, productID int64) error {
	if m.err != nil {
		return m.err
	}
	if m.lines[session][productID] < 2 {
		delete(m.lines[session], productID)
	} else {
		m.lines[session][productID]--
	}
	return nil
}

func (m *mockCart) RemoveItem(_ context.Context, session string, productID int64) error {
	if m.err != nil {
		return m.err
	}
	delete(m.lines[session], productID)
	return nil
}

func (m *mockCart) Clear(_ context.Context, session string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.lines, session)
	return nil
}

func (m *mockCart) Snapshot(_ context.Context, session string) (domain.CartSnapshot, error) {
	var snap domain.CartSnapshot
	for id, qty := range m.lines[session] {
		sub := m.price * int64(qty)
		snap.Lines = append(snap.Lines, domain.CartSnapshotLine{
			Product:  domain.Product{ID: id, Price: m.price},
			Quantity: qty,
			Subtotal: sub,
		})
		snap.TotalQuantity += qty
		snap.TotalPrice += sub
	}
	return snap, nil
}

type mockAccounts struct {
	user      *domain.User
	session   *service.Session
	addresses []domain.Address
	err       error

	lastUserID int64
}

func (m *mockAccounts) Register(_ context.Context, in service.RegisterInput) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.User{ID: 1, Email: in.Email, Firstname: in.Firstname, Lastname: in.Lastname, Role: domain.RoleCustomer}, nil
}

func (m *mockAccounts) Login(context.Context, string, string) (*service.Session, error) {
	return m.session, m.err
}

func (m *mockAccounts) ChangePassword(_ context.Context, userID int64, _, _ string) error {
	m.lastUserID = userID
	return m.err
}

func (m *mockAccounts) ListAddresses(_ context.Context, userID int64) ([]domain.Address, error) {
	m.lastUserID = userID
	return m.addresses, m.err
}

func (m *mockAccounts) AddAddress(_ context.Context, userID int64, a domain.Address) (*domain.Address, error) {
	if m.err != nil {
		return nil, m.err
	}
	a.ID = 7
	a.UserID = userID
	return &a, nil
}

func (m *mockAccounts) DeleteAddress(_ context.Context, userID, _ int64) error {
	m.lastUserID = userID
	return m.err
}

type mockOrders struct {
	order      *domain.Order
	orders     []*domain.Order
	preview    *service.CheckoutPreview
	paymentURL string
	err        error

	lastReq      service.Requester
	lastPaidOnly bool
	lastState    domain.OrderState
}

func (m *mockOrders) PrepareCheckout(_ context.Context, req service.Requester) (*service.CheckoutPreview, error) {
	m.lastReq = req
	return m.preview, m.err
}

func (m *mockOrders) Checkout(_ context.Context, req service.Requester, _, _ int64) (*domain.Order, error) {
	m.lastReq = req
	return m.order, m.err
}

func (m *mockOrders) ListOrders(_ context.Context, req service.Requester, paidOnly bool) ([]*domain.Order, error) {
	m.lastReq = req
	m.lastPaidOnly = paidOnly
	return m.orders, m.err
}

func (m *mockOrders) GetOrder(_ context.Context, req service.Requester, _ string) (*domain.Order, error) {
	m.lastReq = req
	return m.order, m.err
}

func (m *mockOrders) CreatePaymentSession(_ context.Context, req service.Requester, _ string) (string, error) {
	m.lastReq = req
	return m.paymentURL, m.err
}

func (m *mockOrders) ReconcileSuccess(_ context.Context, req service.Requester, _ string) (*domain.Order, error) {
	m.lastReq = req
	return m.order, m.err
}

func (m *mockOrders) ReconcileFail(_ context.Context, req service.Requester, _ string) (*domain.Order, error) {
	m.lastReq = req
	return m.order, m.err
}

func (m *mockOrders) AdvanceState(_ context.Context, _ string, to domain.OrderState) (*domain.Order, error) {
	m.lastState = to
	return m.order, m.err
}

// --- helpers ---

func withUser(r *http.Request, userID int64, role string) *http.Request {
	return r.WithContext(withClaims(r.Context(), &auth.Claims{UserID: userID, Role: role}))
}

func withCartSession(r *http.Request, session string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), cartSessionKey, session))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:           1,
		Reference:    "20261019120000-0123456789abcdef",
		UserID:       1,
		CarrierName:  "Colissimo",
		CarrierPrice: 500,
		Delivery:     "Jane Doe\n1 Rue X\n75001 Paris\nFR",
		State:        domain.OrderStateUnpaid,
		Items: []domain.OrderLineItem{
			domain.NewOrderLineItem("Bag", 1000, 2),
			domain.NewOrderLineItem("Hat", 300, 1),
		},
	}
}
