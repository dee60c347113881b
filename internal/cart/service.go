package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Catalog resolves products against live catalog data.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type Service struct {
	store   Store
	catalog Catalog
}

func NewService(store Store, catalog Catalog) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
	}
}

// Add increments the quantity of an existing catalog product by one.
func (s *Service) Add(ctx context.Context, sessionID string, productID int64) error {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.store.Increment(ctx, sessionID, productID); err != nil {
		slog.ErrorContext(ctx, "cart add failed", "product_id", productID, "error", err)
		return err
	}
	return nil
}

func (s *Service) Decrease(ctx context.Context, sessionID string, productID int64) error {
	if err := s.store.Decrement(ctx, sessionID, productID); err != nil {
		slog.ErrorContext(ctx, "cart decrease failed", "product_id", productID, "error", err)
		return err
	}
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, sessionID string, productID int64) error {
	if err := s.store.Remove(ctx, sessionID, productID); err != nil {
		slog.ErrorContext(ctx, "cart remove failed", "product_id", productID, "error", err)
		return err
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		slog.ErrorContext(ctx, "cart clear failed", "error", err)
		return err
	}
	return nil
}

// Snapshot prices the cart with current catalog data. Lines whose product no
// longer exists are dropped from the result and the totals.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (domain.CartSnapshot, error) {
	lines, err := s.store.Lines(ctx, sessionID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	snapshot := domain.CartSnapshot{Lines: make([]domain.CartSnapshotLine, 0, len(lines))}
	for _, line := range lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			slog.DebugContext(ctx, "skipping cart line for missing product", "product_id", line.ProductID)
			continue
		}
		if err != nil {
			return domain.CartSnapshot{}, fmt.Errorf("resolve product %d: %w", line.ProductID, err)
		}

		subtotal := product.Price * int64(line.Quantity)
		snapshot.Lines = append(snapshot.Lines, domain.CartSnapshotLine{
			Product:  *product,
			Quantity: line.Quantity,
			Subtotal: subtotal,
		})
		snapshot.TotalQuantity += line.Quantity
		snapshot.TotalPrice += subtotal
	}
	return snapshot, nil
}
