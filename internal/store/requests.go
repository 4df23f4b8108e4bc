package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/zaloga/internal/model"
)

const requestColumns = `r.id, r.user_id, r.status, r.tracking_number, r.amount, r.created_at, r.updated_at, u.email`

// CreatePurchaseRequest records a user's request for the given items. An item
// may belong to at most one active request at a time.
func CreatePurchaseRequest(ctx context.Context, db *sql.DB, userID int64, amount decimal.Decimal, itemIDs []int64) (*model.PurchaseRequest, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative: %w", ErrInvalidArgument)
	}
	itemIDs = uniqueIDs(itemIDs)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := userExists(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	for _, itemID := range itemIDs {
		item, err := getItem(ctx, tx, itemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
		}
	}
	if err := checkItemsFree(ctx, tx, 0, itemIDs); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO purchase_requests (user_id, status, amount) VALUES (?, ?, ?)`,
		userID, model.RequestStatusPending, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("creating purchase request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting purchase request id: %w", err)
	}

	for _, itemID := range itemIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO purchase_request_items (request_id, item_id) VALUES (?, ?)`, id, itemID,
		); err != nil {
			return nil, fmt.Errorf("linking item %d: %w", itemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing purchase request: %w", err)
	}
	return GetPurchaseRequest(ctx, db, id)
}

// checkItemsFree fails if any item is linked to an active request other than
// exceptID.
func checkItemsFree(ctx context.Context, q querier, exceptID int64, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	marks, args := placeholders(itemIDs)
	args = append(args, exceptID)

	rows, err := q.QueryContext(ctx,
		`SELECT pri.item_id, r.id, r.status
		 FROM purchase_request_items pri
		 JOIN purchase_requests r ON r.id = pri.request_id
		 WHERE pri.item_id IN (`+marks+`) AND r.id != ?`, args...,
	)
	if err != nil {
		return fmt.Errorf("checking item requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, requestID int64
		var status string
		if err := rows.Scan(&itemID, &requestID, &status); err != nil {
			return fmt.Errorf("scanning item request: %w", err)
		}
		if model.RequestActive(status) {
			return fmt.Errorf("item %d already belongs to active purchase request %d: %w", itemID, requestID, ErrInvalidState)
		}
	}
	return rows.Err()
}

// GetPurchaseRequest returns a request with its items, or nil if absent.
func GetPurchaseRequest(ctx context.Context, db *sql.DB, id int64) (*model.PurchaseRequest, error) {
	requests, err := queryRequests(ctx, db, `WHERE r.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

// ListPurchaseRequestsForUser returns a user's own requests, newest first.
func ListPurchaseRequestsForUser(ctx context.Context, db *sql.DB, userID int64) ([]model.PurchaseRequest, error) {
	return queryRequests(ctx, db, `WHERE r.user_id = ?`, userID)
}

// ListPurchaseRequests returns every request with requester and items, newest first.
func ListPurchaseRequests(ctx context.Context, db *sql.DB) ([]model.PurchaseRequest, error) {
	return queryRequests(ctx, db, ``)
}

func queryRequests(ctx context.Context, db *sql.DB, where string, args ...any) ([]model.PurchaseRequest, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+requestColumns+`
		 FROM purchase_requests r
		 JOIN users u ON u.id = r.user_id
		 `+where+`
		 ORDER BY r.created_at DESC, r.id DESC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing purchase requests: %w", err)
	}

	var requests []model.PurchaseRequest
	for rows.Next() {
		var pr model.PurchaseRequest
		var tracking sql.NullString
		if err := rows.Scan(&pr.ID, &pr.UserID, &pr.Status, &tracking, &pr.Amount, &pr.CreatedAt, &pr.UpdatedAt, &pr.UserEmail); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning purchase request: %w", err)
		}
		pr.TrackingNumber = tracking.String
		pr.InventoryItems = []model.InventoryItem{}
		requests = append(requests, pr)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("listing purchase requests: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing purchase requests: %w", err)
	}

	if err := attachItems(ctx, db, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// attachItems loads the linked items of every request in one query.
func attachItems(ctx context.Context, db *sql.DB, requests []model.PurchaseRequest) error {
	if len(requests) == 0 {
		return nil
	}

	index := make(map[int64]int, len(requests))
	ids := make([]int64, len(requests))
	for i, pr := range requests {
		index[pr.ID] = i
		ids[i] = pr.ID
	}

	marks, args := placeholders(ids)
	rows, err := db.QueryContext(ctx,
		`SELECT pri.request_id, `+itemColumns+`
		 FROM purchase_request_items pri
		 JOIN inventory_items i ON i.id = pri.item_id
		 WHERE pri.request_id IN (`+marks+`)
		 ORDER BY i.id`, args...,
	)
	if err != nil {
		return fmt.Errorf("loading purchase request items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var requestID int64
		var r itemRow
		if err := rows.Scan(append([]any{&requestID}, r.dest()...)...); err != nil {
			return fmt.Errorf("scanning purchase request item: %w", err)
		}
		i := index[requestID]
		requests[i].InventoryItems = append(requests[i].InventoryItems, r.finish())
	}
	return rows.Err()
}

// UpdatePurchaseRequestStatus sets a request's status.
func UpdatePurchaseRequestStatus(ctx context.Context, db *sql.DB, id int64, status string) (*model.PurchaseRequest, error) {
	if err := updateRequest(ctx, db, model.RequestUpdate{ID: id, Status: &status}); err != nil {
		return nil, err
	}
	return GetPurchaseRequest(ctx, db, id)
}

// BulkUpdatePurchaseRequests applies each update on its own. A failing row is
// reported in Errors and does not stop the rest of the batch.
func BulkUpdatePurchaseRequests(ctx context.Context, db *sql.DB, updates []model.RequestUpdate) *model.BulkUpdateResult {
	result := &model.BulkUpdateResult{Errors: []model.RequestUpdateError{}}
	for _, u := range updates {
		if err := updateRequest(ctx, db, u); err != nil {
			result.Errors = append(result.Errors, model.RequestUpdateError{ID: u.ID, Error: err.Error()})
			continue
		}
		result.Processed++
	}
	return result
}

// updateRequest applies one request update in its own transaction. Moving a
// request from an inactive status back to an active one re-checks that its
// items are not held by another active request.
func updateRequest(ctx context.Context, db *sql.DB, u model.RequestUpdate) error {
	if u.Status == nil && u.TrackingNumber == nil {
		return fmt.Errorf("request %d: nothing to update: %w", u.ID, ErrInvalidArgument)
	}
	if u.Status != nil && *u.Status == "" {
		return fmt.Errorf("request %d: status must not be empty: %w", u.ID, ErrInvalidArgument)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM purchase_requests WHERE id = ?`, u.ID).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("purchase request %d: %w", u.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading purchase request: %w", err)
	}

	if u.Status != nil && !model.RequestActive(current) && model.RequestActive(*u.Status) {
		itemIDs, err := requestItemIDs(ctx, tx, u.ID)
		if err != nil {
			return err
		}
		if err := checkItemsFree(ctx, tx, u.ID, itemIDs); err != nil {
			return err
		}
	}

	var status, tracking any
	if u.Status != nil {
		status = *u.Status
	}
	if u.TrackingNumber != nil {
		tracking = *u.TrackingNumber
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE purchase_requests
		 SET status = COALESCE(?, status),
		     tracking_number = CASE WHEN ? THEN ? ELSE tracking_number END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		status, u.TrackingNumber != nil, tracking, u.ID,
	)
	if err != nil {
		return fmt.Errorf("updating purchase request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing purchase request: %w", err)
	}
	return nil
}

func requestItemIDs(ctx context.Context, q querier, requestID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT item_id FROM purchase_request_items WHERE request_id = ?`, requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading request items: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning request item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
