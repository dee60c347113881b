package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const addressColumns = `id, user_id, name, firstname, lastname, company, street, postal, city, country, phone`

func (r *Repository) CreateAddress(ctx context.Context, a *domain.Address) error {
	query := `INSERT INTO addresses (user_id, name, firstname, lastname, company, street, postal, city, country, phone)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		a.UserID, a.Name, a.Firstname, a.Lastname, a.Company,
		a.Street, a.Postal, a.City, a.Country, a.Phone,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *Repository) ListAddresses(ctx context.Context, userID int64) ([]domain.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]domain.Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return addresses, nil
}

// GetAddress only returns addresses owned by userID.
func (r *Repository) GetAddress(ctx context.Context, userID, addressID int64) (*domain.Address, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	a, err := scanAddress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	return a, err
}

func (r *Repository) DeleteAddress(ctx context.Context, userID, addressID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if n == 0 {
		return ErrAddressNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAddress(s scanner) (*domain.Address, error) {
	var a domain.Address
	err := s.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Firstname, &a.Lastname, &a.Company,
		&a.Street, &a.Postal, &a.City, &a.Country, &a.Phone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan address: %w", err)
	}
	return &a, nil
}
