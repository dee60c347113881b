package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"
)

const productColumns = `id, name, slug, subtitle, description, illustration, price, category_id, is_best, created_at`

// Repository serves the read-only catalog from SQLite.
type Repository struct {
	db  *sql.DB
	sfg singleflight.Group // coalesces concurrent lookups of the same product
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// an in-memory database exists only on the connection that created it
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListProducts filters by case-insensitive name match, by category and by the
// featured flag. An empty Search returns the whole catalog.
func (r *Repository) ListProducts(ctx context.Context, search domain.Search) ([]*domain.Product, error) {
	var (
		conditions []string
		args       []any
	)

	if q := strings.TrimSpace(search.Query); q != "" {
		conditions = append(conditions, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	if len(search.CategoryIDs) > 0 {
		placeholders := make([]string, len(search.CategoryIDs))
		for i, id := range search.CategoryIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, "category_id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if search.BestOnly {
		conditions = append(conditions, "is_best = 1")
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	v, err, _ := r.sfg.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
		p, err := scanProduct(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return p, err
	})
	if err != nil {
		return nil, err
	}

	// callers sharing the flight must not alias one struct
	p := *v.(*domain.Product)
	return &p, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}

func (r *Repository) ListCarriers(ctx context.Context) ([]domain.Carrier, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, price FROM carriers ORDER BY price, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query carriers: %w", err)
	}
	defer rows.Close()

	carriers := make([]domain.Carrier, 0)
	for rows.Next() {
		var c domain.Carrier
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Price); err != nil {
			return nil, fmt.Errorf("failed to scan carrier: %w", err)
		}
		carriers = append(carriers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return carriers, nil
}

func (r *Repository) ListHeaders(ctx context.Context) ([]domain.Header, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, content, btn_title, btn_url, image FROM headers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query headers: %w", err)
	}
	defer rows.Close()

	headers := make([]domain.Header, 0)
	for rows.Next() {
		var h domain.Header
		if err := rows.Scan(&h.ID, &h.Title, &h.Content, &h.BtnTitle, &h.BtnURL, &h.Image); err != nil {
			return nil, fmt.Errorf("failed to scan header: %w", err)
		}
		headers = append(headers, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return headers, nil
}

func (r *Repository) GetCarrier(ctx context.Context, id int64) (*domain.Carrier, error) {
	var c domain.Carrier
	err := r.db.QueryRowContext(ctx, `SELECT id, name, description, price FROM carriers WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCarrierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query carrier: %w", err)
	}
	return &c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Subtitle,
		&p.Description,
		&p.Illustration,
		&p.Price,
		&p.CategoryID,
		&p.IsBest,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return p, nil
}
