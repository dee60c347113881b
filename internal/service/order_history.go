package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

// ListOrders returns the requester's orders newest first. With paidOnly set,
// orders still waiting for payment are left out.
func (s *OrderService) ListOrders(ctx context.Context, req Requester, paidOnly bool) ([]*domain.Order, error) {
	if !req.Authenticated() {
		return nil, ErrUnauthenticated
	}

	orders, err := s.orders.ListOrdersByUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if !paidOnly {
		return orders, nil
	}

	paid := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.IsPaid() {
			paid = append(paid, o)
		}
	}
	return paid, nil
}

func (s *OrderService) GetOrder(ctx context.Context, req Requester, reference string) (*domain.Order, error) {
	return s.ownedOrder(ctx, req, func() (*domain.Order, error) {
		return s.orders.GetOrderByReference(ctx, reference)
	})
}

// AdvanceState is the back-office fulfilment step: Paid -> Preparing -> Shipped.
// Payment itself is never set here.
func (s *OrderService) AdvanceState(ctx context.Context, reference string, to domain.OrderState) (*domain.Order, error) {
	order, err := s.orders.GetOrderByReference(ctx, reference)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if to < domain.OrderStatePreparing || !domain.CanTransitionTo(order.State, to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, order.State, to)
	}

	ok, err := s.orders.AdvanceState(ctx, order.ID, order.State, to)
	if err != nil {
		return nil, fmt.Errorf("advance order state: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: order %s changed concurrently", domain.ErrIllegalTransition, reference)
	}

	slog.InfoContext(ctx, "order state advanced", "reference", reference, "from", order.State.String(), "to", to.String())
	order.State = to
	return order, nil
}
