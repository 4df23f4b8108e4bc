package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/zaloga/internal/model"
)

// RecordSupplierInfo writes compliance fields onto the items in ids that the
// actor currently holds. Items held by others, and sold items, are skipped
// without error. Input is validated before any row is touched. It returns the
// number of items updated.
func RecordSupplierInfo(ctx context.Context, db *sql.DB, ids []int64, actorID int64, info model.SupplierInfo) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, fmt.Errorf("itemIds must not be empty: %w", ErrInvalidArgument)
	}
	if info.Empty() {
		return 0, fmt.Errorf("no supplier fields given: %w", ErrInvalidArgument)
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if info.Supplier != nil {
		set("supplier", *info.Supplier)
	}
	if info.SupplierName != nil {
		set("supplier_name", *info.SupplierName)
	}
	if info.SupplierAddress != nil {
		set("supplier_address", *info.SupplierAddress)
	}
	if info.SupplierOccupation != nil {
		set("supplier_occupation", *info.SupplierOccupation)
	}
	if info.SupplierAge != nil {
		age, err := model.ParseSupplierAge(string(*info.SupplierAge))
		if err != nil {
			return 0, fmt.Errorf("%v: %w", err, ErrInvalidArgument)
		}
		set("supplier_age", age)
	}
	if info.IDVerificationMethod != nil {
		set("id_verification_method", *info.IDVerificationMethod)
	}
	if info.PurchaseDate != nil {
		d, err := model.ParsePurchaseDate(*info.PurchaseDate)
		if err != nil {
			return 0, fmt.Errorf("%v: %w", err, ErrInvalidArgument)
		}
		set("purchase_date", d)
	}
	if info.CostPrice != nil {
		price, err := model.ParseCostPrice(string(*info.CostPrice))
		if err != nil {
			return 0, fmt.Errorf("%v: %w", err, ErrInvalidArgument)
		}
		set("cost_price", price)
	}

	marks, idArgs := placeholders(ids)
	args = append(args, idArgs...)
	args = append(args, actorID, string(model.StatusSold))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE inventory_items SET `+strings.Join(sets, ", ")+`, updated_at = CURRENT_TIMESTAMP
		 WHERE id IN (`+marks+`) AND assigned_to_user_id = ? AND status != ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("recording supplier info: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting updated items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing supplier info: %w", err)
	}
	return n, nil
}
