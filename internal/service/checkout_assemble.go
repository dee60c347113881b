package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

type CheckoutPreview struct {
	Cart      domain.CartSnapshot `json:"cart"`
	Addresses []domain.Address    `json:"addresses"`
	Carriers  []domain.Carrier    `json:"carriers"`
}

// AssembleOrder persists an Unpaid order built from the cart snapshot. Line
// items and the delivery text are copies; later catalog or address edits do
// not reach the order.
func (s *OrderService) AssembleOrder(
	ctx context.Context,
	user *domain.User,
	address *domain.Address,
	carrier *domain.Carrier,
	snapshot domain.CartSnapshot) (*domain.Order, error) {

	if user == nil || user.ID <= 0 {
		return nil, ErrUnauthenticated
	}
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if address == nil {
		return nil, ErrNoAddress
	}
	if address.UserID != user.ID {
		return nil, ErrAddressNotFound
	}
	if carrier == nil {
		return nil, ErrCarrierNotFound
	}

	order := &domain.Order{
		Reference:    domain.NewReference(s.now()),
		UserID:       user.ID,
		CarrierName:  carrier.Name,
		CarrierPrice: carrier.Price,
		Delivery:     address.DeliveryText(),
		State:        domain.OrderStateUnpaid,
		Items:        make([]domain.OrderLineItem, 0, len(snapshot.Lines)),
	}
	for _, line := range snapshot.Lines {
		order.Items = append(order.Items, domain.NewOrderLineItem(line.Product.Name, line.Product.Price, line.Quantity))
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			slog.ErrorContext(ctx, "order reference collision", "reference", order.Reference)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	slog.InfoContext(ctx, "order created",
		"reference", order.Reference,
		"user_id", user.ID,
		"items", len(order.Items),
		"total", order.Total())
	return order, nil
}

// PrepareCheckout gathers what the customer chooses from before ordering.
func (s *OrderService) PrepareCheckout(ctx context.Context, req Requester) (*CheckoutPreview, error) {
	if !req.Authenticated() {
		return nil, ErrUnauthenticated
	}

	snapshot, err := s.cart.Snapshot(ctx, req.CartSession)
	if err != nil {
		return nil, fmt.Errorf("cart snapshot: %w", err)
	}
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}

	addresses, err := s.addresses.ListAddresses(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	if len(addresses) == 0 {
		return nil, ErrNoAddress
	}

	carriers, err := s.carriers.ListCarriers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list carriers: %w", err)
	}

	return &CheckoutPreview{Cart: snapshot, Addresses: addresses, Carriers: carriers}, nil
}

// Checkout resolves the requester's choices and assembles the order.
func (s *OrderService) Checkout(ctx context.Context, req Requester, addressID, carrierID int64) (*domain.Order, error) {
	if !req.Authenticated() {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetUserByID(ctx, req.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	snapshot, err := s.cart.Snapshot(ctx, req.CartSession)
	if err != nil {
		return nil, fmt.Errorf("cart snapshot: %w", err)
	}
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}

	address, err := s.addresses.GetAddress(ctx, user.ID, addressID)
	if errors.Is(err, repository.ErrAddressNotFound) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}

	carrier, err := s.carriers.GetCarrier(ctx, carrierID)
	if errors.Is(err, domain.ErrCarrierNotFound) {
		return nil, ErrCarrierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get carrier: %w", err)
	}

	return s.AssembleOrder(ctx, user, address, carrier, snapshot)
}
