package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/zaloga/internal/model"
)

// CreateProduct adds a catalog product with an initial stock level.
func CreateProduct(ctx context.Context, db *sql.DB, name string, stock int) (*model.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("product name is required: %w", ErrInvalidArgument)
	}
	if stock < 0 {
		return nil, fmt.Errorf("stock must not be negative: %w", ErrInvalidArgument)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO products (name, stock) VALUES (?, ?)`, name, stock,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting product id: %w", err)
	}
	return GetProduct(ctx, db, id)
}

// GetProduct returns a product by ID, or nil if it does not exist.
func GetProduct(ctx context.Context, db *sql.DB, id int64) (*model.Product, error) {
	var p model.Product
	err := db.QueryRowContext(ctx,
		`SELECT id, name, stock, created_at, updated_at FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return &p, nil
}

// ListProducts returns all products ordered by name.
func ListProducts(ctx context.Context, db *sql.DB) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, stock, created_at, updated_at FROM products ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// SetProductStock sets a product's stock level. The returned change describes
// the committed update, so callers can react to restocks afterwards.
func SetProductStock(ctx context.Context, db *sql.DB, id int64, stock int) (*model.StockChange, error) {
	if stock < 0 {
		return nil, fmt.Errorf("stock must not be negative: %w", ErrInvalidArgument)
	}
	return changeStock(ctx, db, id, func(int) int { return stock })
}

// AdjustProductStock adds delta to a product's stock. Delta can be negative
// but the result cannot drop below zero.
func AdjustProductStock(ctx context.Context, db *sql.DB, id int64, delta int) (*model.StockChange, error) {
	if delta == 0 {
		return nil, fmt.Errorf("delta must be non-zero: %w", ErrInvalidArgument)
	}
	return changeStock(ctx, db, id, func(current int) int { return current + delta })
}

func changeStock(ctx context.Context, db *sql.DB, id int64, next func(current int) int) (*model.StockChange, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	change := model.StockChange{ProductID: id}
	err = tx.QueryRowContext(ctx,
		`SELECT name, stock FROM products WHERE id = ?`, id,
	).Scan(&change.ProductName, &change.OldStock)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking current stock: %w", err)
	}

	change.NewStock = next(change.OldStock)
	if change.NewStock < 0 {
		return nil, fmt.Errorf("adjustment would result in negative stock: %d -> %d: %w",
			change.OldStock, change.NewStock, ErrInvalidArgument)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND stock = ?`,
		change.NewStock, id, change.OldStock,
	)
	if err != nil {
		return nil, fmt.Errorf("updating stock: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("product %d changed concurrently: %w", id, ErrInvalidState)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing stock: %w", err)
	}
	return &change, nil
}
