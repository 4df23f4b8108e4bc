package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

// CreateRestockSubscription registers email for restock notices on a product.
// Subscribing twice with the same email is not an error.
func CreateRestockSubscription(ctx context.Context, db *sql.DB, productID int64, email string, userID *int64) (*model.RestockSubscription, error) {
	email = strings.TrimSpace(email)
	if err := model.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidArgument)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, productID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking product: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}

	if userID != nil {
		ok, err := userExists(ctx, tx, *userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("user %d: %w", *userID, ErrNotFound)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO restock_subscriptions (product_id, email, user_id) VALUES (?, ?, ?)
		 ON CONFLICT (product_id, email) DO UPDATE SET user_id = COALESCE(excluded.user_id, user_id)`,
		productID, email, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating subscription: %w", err)
	}

	var sub model.RestockSubscription
	err = tx.QueryRowContext(ctx,
		`SELECT id, product_id, email, user_id, created_at, last_notified_at
		 FROM restock_subscriptions WHERE product_id = ? AND email = ?`, productID, email,
	).Scan(&sub.ID, &sub.ProductID, &sub.Email, &sub.UserID, &sub.CreatedAt, &sub.LastNotifiedAt)
	if err != nil {
		return nil, fmt.Errorf("reading subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing subscription: %w", err)
	}
	return &sub, nil
}

// ListRestockSubscriptions returns every subscription for a product.
func ListRestockSubscriptions(ctx context.Context, db *sql.DB, productID int64) ([]model.RestockSubscription, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, product_id, email, user_id, created_at, last_notified_at
		 FROM restock_subscriptions WHERE product_id = ? ORDER BY id`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.RestockSubscription
	for rows.Next() {
		var sub model.RestockSubscription
		if err := rows.Scan(&sub.ID, &sub.ProductID, &sub.Email, &sub.UserID, &sub.CreatedAt, &sub.LastNotifiedAt); err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// MarkSubscriptionsNotified stamps the given subscriptions with at.
func MarkSubscriptionsNotified(ctx context.Context, db *sql.DB, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	marks, args := placeholders(ids)
	_, err := db.ExecContext(ctx,
		`UPDATE restock_subscriptions SET last_notified_at = ? WHERE id IN (`+marks+`)`,
		append([]any{at.UTC()}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("marking subscriptions notified: %w", err)
	}
	return nil
}
