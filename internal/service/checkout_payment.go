package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CreatePaymentSession opens a gateway checkout for the order and returns the
// URL to redirect the customer to. The session id is stored only once the
// gateway has answered, replacing any earlier one.
func (s *OrderService) CreatePaymentSession(ctx context.Context, req Requester, reference string) (string, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreatePaymentSession",
		trace.WithAttributes(attribute.String("order.reference", reference)))
	defer span.End()

	order, err := s.ownedOrder(ctx, req, func() (*domain.Order, error) {
		return s.orders.GetOrderByReference(ctx, reference)
	})
	if err != nil {
		return "", err
	}
	if order.IsPaid() {
		return "", ErrAlreadyPaid
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		ClientReference: order.Reference,
		Items:           GatewayLines(order),
		SuccessURL:      s.successURL(),
		CancelURL:       s.failURL(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway failure")
		slog.ErrorContext(ctx, "payment session failed", "reference", order.Reference, "error", err)
		return "", fmt.Errorf("%w: %w", ErrGateway, err)
	}

	if order.PaymentSessionID != nil {
		slog.InfoContext(ctx, "replacing payment session",
			"reference", order.Reference,
			"previous_session_id", *order.PaymentSessionID)
	}
	if err := s.orders.SetPaymentSession(ctx, order.ID, session.ID); err != nil {
		return "", fmt.Errorf("store payment session: %w", err)
	}

	slog.InfoContext(ctx, "payment session created", "reference", order.Reference, "session_id", session.ID)
	return session.URL, nil
}

// GatewayLines maps an order to one gateway line per item plus the carrier.
func GatewayLines(order *domain.Order) []payment.LineItem {
	lines := make([]payment.LineItem, 0, len(order.Items)+1)
	for _, item := range order.Items {
		lines = append(lines, payment.LineItem{
			Name:      item.ProductName,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return append(lines, payment.LineItem{
		Name:      order.CarrierName,
		UnitPrice: order.CarrierPrice,
		Quantity:  1,
	})
}

// ownedOrder loads an order and hides it unless the requester owns it.
func (s *OrderService) ownedOrder(ctx context.Context, req Requester, load func() (*domain.Order, error)) (*domain.Order, error) {
	if !req.Authenticated() {
		return nil, ErrNotFound
	}

	order, err := load()
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if !order.OwnedBy(req.UserID) {
		slog.WarnContext(ctx, "order ownership mismatch", "user_id", req.UserID, "reference", order.Reference)
		return nil, ErrNotFound
	}
	return order, nil
}
