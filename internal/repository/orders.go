package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/lib/pq"
)

const orderColumns = `id, reference, created_at, user_id, carrier_name, carrier_price, delivery, state, payment_session_id`

// CreateOrder inserts the order and its line items in one transaction and
// fills in the generated ids. A reference collision rolls everything back.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `INSERT INTO orders (reference, user_id, carrier_name, carrier_price, delivery, state)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query,
		order.Reference,
		order.UserID,
		order.CarrierName,
		order.CarrierPrice,
		order.Delivery,
		order.State,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "orders_reference_key") {
			return ErrDuplicateReference
		}
		return fmt.Errorf("insert order: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO order_line_items (order_id, product_name, unit_price, quantity, total)
	                                    VALUES ($1, $2, $3, $4, $5) RETURNING id`)
	if err != nil {
		return fmt.Errorf("prepare line item insert: %w", err)
	}
	defer stmt.Close()

	for i := range order.Items {
		item := &order.Items[i]
		err = stmt.QueryRowContext(ctx, order.ID, item.ProductName, item.UnitPrice, item.Quantity, item.Total).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return r.getOrder(ctx, `WHERE reference = $1`, reference)
}

func (r *Repository) GetOrderByPaymentSession(ctx context.Context, sessionID string) (*domain.Order, error) {
	return r.getOrder(ctx, `WHERE payment_session_id = $1`, sessionID)
}

func (r *Repository) getOrder(ctx context.Context, where string, arg any) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders `+where, arg)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.lineItems(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (r *Repository) ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.lineItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.Items = items[order.ID]
	}
	return orders, nil
}

// SetPaymentSession overwrites any previous session id.
func (r *Repository) SetPaymentSession(ctx context.Context, orderID int64, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET payment_session_id = $2 WHERE id = $1`, orderID, sessionID)
	if err != nil {
		return fmt.Errorf("set payment session: %w", err)
	}
	return expectOneRow(res)
}

// MarkPaid moves an order from Unpaid to Paid. It reports false when the
// order was already past Unpaid, so only one caller ever observes true.
func (r *Repository) MarkPaid(ctx context.Context, orderID int64) (bool, error) {
	return r.transition(ctx, orderID, domain.OrderStateUnpaid, domain.OrderStatePaid)
}

// AdvanceState applies from -> to only if the order is still in from.
func (r *Repository) AdvanceState(ctx context.Context, orderID int64, from, to domain.OrderState) (bool, error) {
	if !domain.CanTransitionTo(from, to) {
		return false, domain.ErrIllegalTransition
	}
	return r.transition(ctx, orderID, from, to)
}

func (r *Repository) transition(ctx context.Context, orderID int64, from, to domain.OrderState) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET state = $3 WHERE id = $1 AND state = $2`, orderID, from, to)
	if err != nil {
		return false, fmt.Errorf("update order state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update order state: %w", err)
	}
	return n == 1, nil
}

func (r *Repository) lineItems(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderLineItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_name, unit_price, quantity, total
		 FROM order_line_items WHERE order_id = ANY($1) ORDER BY id`, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]domain.OrderLineItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID int64
			item    domain.OrderLineItem
		)
		if err := rows.Scan(&item.ID, &orderID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.Total); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items[orderID] = append(items[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		order     domain.Order
		sessionID sql.NullString
	)
	err := s.Scan(
		&order.ID,
		&order.Reference,
		&order.CreatedAt,
		&order.UserID,
		&order.CarrierName,
		&order.CarrierPrice,
		&order.Delivery,
		&order.State,
		&sessionID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan order row: %w", err)
	}
	if sessionID.Valid {
		order.PaymentSessionID = &sessionID.String
	}
	return &order, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
