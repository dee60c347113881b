package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notification"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ReconcileSuccess marks the order paid when the gateway sends the customer
// back. Only the caller whose conditional update wins sends the confirmation
// and clears the cart; repeated callbacks just return the order.
func (s *OrderService) ReconcileSuccess(ctx context.Context, req Requester, sessionID string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.ReconcileSuccess",
		trace.WithAttributes(attribute.String("payment.session_id", sessionID)))
	defer span.End()

	order, err := s.orderBySession(ctx, req, sessionID)
	if err != nil {
		return nil, err
	}
	if order.State != domain.OrderStateUnpaid {
		return order, nil
	}

	transitioned, err := s.orders.MarkPaid(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	if !transitioned {
		// a concurrent callback got there first
		return s.orderBySession(ctx, req, sessionID)
	}
	order.State = domain.OrderStatePaid
	span.SetAttributes(attribute.String("order.reference", order.Reference))
	slog.InfoContext(ctx, "order paid", "reference", order.Reference, "session_id", sessionID)

	s.notifyPaid(ctx, order)
	if err := s.cart.Clear(ctx, req.CartSession); err != nil {
		slog.WarnContext(ctx, "cart clear after payment failed", "reference", order.Reference, "error", err)
	}
	return order, nil
}

// ReconcileFail only reports the order; it stays Unpaid and can be paid again.
func (s *OrderService) ReconcileFail(ctx context.Context, req Requester, sessionID string) (*domain.Order, error) {
	order, err := s.orderBySession(ctx, req, sessionID)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "payment cancelled", "reference", order.Reference, "session_id", sessionID)
	return order, nil
}

func (s *OrderService) orderBySession(ctx context.Context, req Requester, sessionID string) (*domain.Order, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}
	return s.ownedOrder(ctx, req, func() (*domain.Order, error) {
		return s.orders.GetOrderByPaymentSession(ctx, sessionID)
	})
}

// notifyPaid never fails the request.
func (s *OrderService) notifyPaid(ctx context.Context, order *domain.Order) {
	user, err := s.users.GetUserByID(ctx, order.UserID)
	if err != nil {
		slog.WarnContext(ctx, "confirmation skipped, owner lookup failed", "reference", order.Reference, "error", err)
		return
	}
	if err := s.notifier.Send(ctx, notification.OrderConfirmation(user, order)); err != nil {
		slog.WarnContext(ctx, "confirmation send failed", "reference", order.Reference, "error", err)
	}
}
