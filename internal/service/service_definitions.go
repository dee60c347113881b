package service

import (
	"context"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Requester identifies who is calling: the authenticated user (zero when
// anonymous) and the cart session of the browser.
type Requester struct {
	UserID      int64
	CartSession string
}

func (r Requester) Authenticated() bool {
	return r.UserID > 0
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByReference(ctx context.Context, reference string) (*domain.Order, error)
	GetOrderByPaymentSession(ctx context.Context, sessionID string) (*domain.Order, error)
	SetPaymentSession(ctx context.Context, orderID int64, sessionID string) error
	MarkPaid(ctx context.Context, orderID int64) (bool, error)
	AdvanceState(ctx context.Context, orderID int64, from, to domain.OrderState) (bool, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}

type AddressStore interface {
	ListAddresses(ctx context.Context, userID int64) ([]domain.Address, error)
	GetAddress(ctx context.Context, userID, addressID int64) (*domain.Address, error)
	CreateAddress(ctx context.Context, a *domain.Address) error
	DeleteAddress(ctx context.Context, userID, addressID int64) error
}

type CarrierStore interface {
	ListCarriers(ctx context.Context) ([]domain.Carrier, error)
	GetCarrier(ctx context.Context, id int64) (*domain.Carrier, error)
}

// Cart is the part of the cart service checkout depends on.
type Cart interface {
	Snapshot(ctx context.Context, sessionID string) (domain.CartSnapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

type TokenIssuer interface {
	Issue(userID int64, role string) (string, time.Time, error)
}
