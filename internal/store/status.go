package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

// StatusChange is a single-item status update.
type StatusChange struct {
	Status           model.ItemStatus
	AssignedToUserID *int64
	Note             *string
}

// transitionOp is one guarded mutation of an item's status and custody.
type transitionOp struct {
	to           model.ItemStatus
	custodian    *int64
	note         *string
	actorID      int64
	resetReceipt bool
	eventNote    string
}

// SetItemStatus moves an item to a new status, enforcing the transition table.
// Entering IN_STOCK or RETURNED clears the custodian in the same write.
func SetItemStatus(ctx context.Context, db *sql.DB, id int64, change StatusChange, actorID int64) (*model.InventoryItem, error) {
	if !change.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", change.Status, ErrInvalidArgument)
	}
	if change.Status == model.StatusAssigned && change.AssignedToUserID == nil {
		return nil, fmt.Errorf("assignedToUserId is required for ASSIGNED: %w", ErrInvalidArgument)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}

	op := transitionOp{
		to:        change.Status,
		custodian: change.AssignedToUserID,
		note:      change.Note,
		actorID:   actorID,
	}
	if err := applyTransition(ctx, tx, item, op); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status change: %w", err)
	}
	return GetItem(ctx, db, id)
}

// AssignItem hands a single item to a custodian. The new custodian must
// acknowledge receipt again; provenance fields are left as they are.
func AssignItem(ctx context.Context, db *sql.DB, id, custodianID, actorID int64) (*model.InventoryItem, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}

	op := transitionOp{
		to:           model.StatusAssigned,
		custodian:    &custodianID,
		actorID:      actorID,
		resetReceipt: true,
		eventNote:    "assigned",
	}
	if err := applyTransition(ctx, tx, item, op); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing assignment: %w", err)
	}
	return GetItem(ctx, db, id)
}

// applyTransition validates op against the item's current state and writes
// it with a compare-and-swap on the status read in this transaction.
func applyTransition(ctx context.Context, tx *sql.Tx, item *model.InventoryItem, op transitionOp) error {
	if item.Status == model.StatusSold {
		return fmt.Errorf("item %d is sold and can no longer change: %w", item.ID, ErrInvalidState)
	}

	rule, ok := model.LookupTransition(item.Status, op.to)
	if !ok {
		return fmt.Errorf("item %d cannot go from %s to %s: %w", item.ID, item.Status, op.to, ErrInvalidTransition)
	}

	custodian := item.AssignedToUserID
	if op.custodian != nil {
		custodian = op.custodian
	}
	if model.ReleasesCustody(op.to) {
		custodian = nil
	}

	if rule.RequiresCustodianMatch && !sameUser(custodian, item.AssignedToUserID) {
		return fmt.Errorf("custodian of %s item %d cannot change until it is returned or back in stock: %w",
			item.Status, item.ID, ErrInvalidTransition)
	}

	if op.to == model.StatusSold && item.IsSelfSourced && !item.ComplianceComplete() {
		return fmt.Errorf("self-sourced item %d needs complete supplier details before sale: %w", item.ID, ErrInvalidArgument)
	}

	if custodian != nil && !sameUser(custodian, item.AssignedToUserID) {
		ok, err := userExists(ctx, tx, *custodian)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("custodian %d: %w", *custodian, ErrNotFound)
		}
	}

	receivedAt := item.ReceivedAt
	if op.resetReceipt || !sameUser(custodian, item.AssignedToUserID) {
		receivedAt = nil
	}

	var note any
	if op.note != nil {
		note = nullString(*op.note)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE inventory_items
		 SET status = ?, assigned_to_user_id = ?, received_at = ?,
		     note = CASE WHEN ? THEN ? ELSE note END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		string(op.to), custodian, receivedAt,
		op.note != nil, note,
		item.ID, string(item.Status),
	)
	if err != nil {
		return fmt.Errorf("updating item status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("item %d changed concurrently: %w", item.ID, ErrInvalidTransition)
	}

	eventNote := op.eventNote
	if op.note != nil && *op.note != "" {
		eventNote = *op.note
	}
	from := item.Status
	return recordEvent(ctx, tx, item.ID, &from, op.to, item.AssignedToUserID, custodian, &op.actorID, eventNote)
}

// BulkAssignResult reports how many requested items were assigned.
type BulkAssignResult struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// AssignItems assigns every eligible item in ids to the custodian in one
// transaction. SHIPPED, SOLD, RETURNED and unknown items are skipped; the
// call fails only when nothing is eligible.
func AssignItems(ctx context.Context, db *sql.DB, ids []int64, custodianID, actorID int64) (*BulkAssignResult, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("itemIds must not be empty: %w", ErrInvalidArgument)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := userExists(ctx, tx, custodianID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("custodian %d: %w", custodianID, ErrNotFound)
	}

	marks, args := placeholders(ids)
	rows, err := tx.QueryContext(ctx,
		`SELECT id, status, assigned_to_user_id FROM inventory_items WHERE id IN (`+marks+`)`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}

	type candidate struct {
		id        int64
		status    model.ItemStatus
		custodian *int64
	}
	var eligible []candidate
	for rows.Next() {
		var c candidate
		var status string
		if err := rows.Scan(&c.id, &status, &c.custodian); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		c.status = model.ItemStatus(status)
		if model.BulkAssignable(c.status) {
			eligible = append(eligible, c)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}

	if len(eligible) == 0 {
		return nil, fmt.Errorf("none of the %d items can be assigned: %w", len(ids), ErrInvalidArgument)
	}

	for _, c := range eligible {
		_, err := tx.ExecContext(ctx,
			`UPDATE inventory_items
			 SET status = ?, assigned_to_user_id = ?, received_at = NULL, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND status = ?`,
			string(model.StatusAssigned), custodianID, c.id, string(c.status),
		)
		if err != nil {
			return nil, fmt.Errorf("assigning item %d: %w", c.id, err)
		}
		from := c.status
		if err := recordEvent(ctx, tx, c.id, &from, model.StatusAssigned, c.custodian, &custodianID, &actorID, "bulk assigned"); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bulk assignment: %w", err)
	}

	return &BulkAssignResult{Updated: len(eligible), Skipped: len(ids) - len(eligible)}, nil
}

func sameUser(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
