package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notification"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

// memoryDB implements OrderStore, UserStore and AddressStore.
type memoryDB struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]*domain.Order
	refs      map[string]int64
	users     map[int64]*domain.User
	addresses map[int64]*domain.Address

	createErr   error
	setSessErr  error
	markPaidErr error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		orders:    make(map[int64]*domain.Order),
		refs:      make(map[string]int64),
		users:     make(map[int64]*domain.User),
		addresses: make(map[int64]*domain.Address),
	}
}

func (m *memoryDB) id() int64 {
	m.nextID++
	return m.nextID
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderLineItem(nil), o.Items...)
	if o.PaymentSessionID != nil {
		sid := *o.PaymentSessionID
		c.PaymentSessionID = &sid
	}
	return &c
}

func (m *memoryDB) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, taken := m.refs[order.Reference]; taken {
		return repository.ErrDuplicateReference
	}
	order.ID = m.id()
	m.refs[order.Reference] = order.ID
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = m.id()
	}
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *memoryDB) GetOrderByReference(_ context.Context, reference string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.refs[reference]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return cloneOrder(m.orders[id]), nil
}

func (m *memoryDB) GetOrderByPaymentSession(_ context.Context, sessionID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.PaymentSessionID != nil && *o.PaymentSessionID == sessionID {
			return cloneOrder(o), nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *memoryDB) SetPaymentSession(_ context.Context, orderID int64, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setSessErr != nil {
		return m.setSessErr
	}
	o, ok := m.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.PaymentSessionID = &sessionID
	return nil
}

func (m *memoryDB) MarkPaid(ctx context.Context, orderID int64) (bool, error) {
	if m.markPaidErr != nil {
		return false, m.markPaidErr
	}
	return m.AdvanceState(ctx, orderID, domain.OrderStateUnpaid, domain.OrderStatePaid)
}

func (m *memoryDB) AdvanceState(_ context.Context, orderID int64, from, to domain.OrderState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.State != from {
		return false, nil
	}
	o.State = to
	return true, nil
}

func (m *memoryDB) ListOrdersByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make([]*domain.Order, 0)
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (m *memoryDB) order(id int64) *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneOrder(m.orders[id])
}

func (m *memoryDB) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.ID = m.id()
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *memoryDB) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (m *memoryDB) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memoryDB) UpdatePasswordHash(_ context.Context, userID int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memoryDB) ListAddresses(_ context.Context, userID int64) ([]domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]domain.Address, 0)
	for _, a := range m.addresses {
		if a.UserID == userID {
			list = append(list, *a)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *memoryDB) GetAddress(_ context.Context, userID, addressID int64) (*domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[addressID]
	if !ok || a.UserID != userID {
		return nil, repository.ErrAddressNotFound
	}
	c := *a
	return &c, nil
}

func (m *memoryDB) CreateAddress(_ context.Context, a *domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	c := *a
	m.addresses[a.ID] = &c
	return nil
}

func (m *memoryDB) DeleteAddress(_ context.Context, userID, addressID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[addressID]
	if !ok || a.UserID != userID {
		return repository.ErrAddressNotFound
	}
	delete(m.addresses, addressID)
	return nil
}

type mockCarriers struct {
	carriers []domain.Carrier
}

func (m *mockCarriers) ListCarriers(context.Context) ([]domain.Carrier, error) {
	return m.carriers, nil
}

func (m *mockCarriers) GetCarrier(_ context.Context, id int64) (*domain.Carrier, error) {
	for _, c := range m.carriers {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrCarrierNotFound
}

type mockCart struct {
	mu        sync.Mutex
	snapshots map[string]domain.CartSnapshot
	clears    map[string]int
	clearErr  error
}

func newMockCart() *mockCart {
	return &mockCart{
		snapshots: make(map[string]domain.CartSnapshot),
		clears:    make(map[string]int),
	}
}

func (m *mockCart) Snapshot(_ context.Context, sessionID string) (domain.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[sessionID], nil
}

func (m *mockCart) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears[sessionID]++
	if m.clearErr != nil {
		return m.clearErr
	}
	delete(m.snapshots, sessionID)
	return nil
}

func (m *mockCart) clearCount(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears[sessionID]
}

type mockGateway struct {
	mu       sync.Mutex
	requests []payment.CheckoutRequest
	err      error
}

func (m *mockGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)
	id := "cs_" + req.ClientReference + "_" + strconv.Itoa(len(m.requests))
	return &payment.Session{ID: id, URL: "https://pay.test/" + id}, nil
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (m *mockNotifier) Send(_ context.Context, msg notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type mockTokens struct{}

func (mockTokens) Issue(userID int64, role string) (string, time.Time, error) {
	return "token-" + role, time.Now().Add(time.Hour), nil
}
