package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var ErrNoSession = errors.New("cart session id is empty")

// Store keeps the raw productID -> quantity mapping of a cart session.
// Implementations return lines ordered by product id.
type Store interface {
	Lines(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	Increment(ctx context.Context, sessionID string, productID int64) error
	// Decrement removes the line when its quantity is below 2, otherwise
	// lowers it by one. Unknown lines are ignored.
	Decrement(ctx context.Context, sessionID string, productID int64) error
	Remove(ctx context.Context, sessionID string, productID int64) error
	Clear(ctx context.Context, sessionID string) error
}
