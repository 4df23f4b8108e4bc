package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/zaloga/internal/model"
)

// ItemFields are the values supplied when registering an item.
type ItemFields struct {
	Name                 string
	IsSelfSourced        bool
	AdminID              *int64
	Supplier             *string
	SupplierName         *string
	SupplierAddress      *string
	SupplierOccupation   *string
	SupplierAge          *int
	IDVerificationMethod *string
	PurchaseDate         *time.Time
	CostPrice            decimal.NullDecimal
	Note                 string
}

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	Status     model.ItemStatus
	AssignedTo int64
}

// itemColumns must stay in step with itemRow.dest.
const itemColumns = `i.id, i.name, i.status, i.is_self_sourced, i.admin_id, i.assigned_to_user_id,
	i.supplier, i.supplier_name, i.supplier_address, i.supplier_occupation, i.supplier_age,
	i.id_verification_method, i.purchase_date, i.cost_price, i.received_at, i.note,
	i.photo IS NOT NULL, i.created_at, i.updated_at`

type itemRow struct {
	item   model.InventoryItem
	status string
	note   sql.NullString
}

func (r *itemRow) dest() []any {
	it := &r.item
	return []any{&it.ID, &it.Name, &r.status, &it.IsSelfSourced, &it.AdminID, &it.AssignedToUserID,
		&it.Supplier, &it.SupplierName, &it.SupplierAddress, &it.SupplierOccupation, &it.SupplierAge,
		&it.IDVerificationMethod, &it.PurchaseDate, &it.CostPrice, &it.ReceivedAt, &r.note,
		&it.HasPhoto, &it.CreatedAt, &it.UpdatedAt}
}

func (r *itemRow) finish() model.InventoryItem {
	r.item.Status = model.ItemStatus(r.status)
	r.item.Note = r.note.String
	return r.item
}

// CreateItem registers a new item. It starts IN_STOCK with no custodian.
func CreateItem(ctx context.Context, db *sql.DB, f ItemFields) (*model.InventoryItem, error) {
	if f.SupplierAge != nil && *f.SupplierAge <= 0 {
		return nil, fmt.Errorf("supplierAge must be positive: %w", ErrInvalidArgument)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if f.AdminID != nil {
		ok, err := userExists(ctx, tx, *f.AdminID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("user %d: %w", *f.AdminID, ErrNotFound)
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO inventory_items (name, status, is_self_sourced, admin_id,
		        supplier, supplier_name, supplier_address, supplier_occupation, supplier_age,
		        id_verification_method, purchase_date, cost_price, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name, string(model.StatusInStock), f.IsSelfSourced, f.AdminID,
		f.Supplier, f.SupplierName, f.SupplierAddress, f.SupplierOccupation, f.SupplierAge,
		f.IDVerificationMethod, f.PurchaseDate, f.CostPrice, nullString(f.Note),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	if err := recordEvent(ctx, tx, id, nil, model.StatusInStock, nil, nil, f.AdminID, "registered"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.InventoryItem, error) {
	return getItem(ctx, db, id)
}

func getItem(ctx context.Context, q querier, id int64) (*model.InventoryItem, error) {
	var r itemRow
	err := q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items i WHERE i.id = ?`, id,
	).Scan(r.dest()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item := r.finish()
	return &item, nil
}

// ListItems returns items matching the filter, newest first.
func ListItems(ctx context.Context, db *sql.DB, filter ItemFilter) ([]model.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items i WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND i.status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.AssignedTo > 0 {
		query += ` AND i.assigned_to_user_id = ?`
		args = append(args, filter.AssignedTo)
	}

	query += ` ORDER BY i.created_at DESC, i.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var r itemRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, r.finish())
	}
	return items, rows.Err()
}

// AcknowledgeReceipt records that the current custodian physically holds the
// item. The item goes back to IN_STOCK while keeping its custodian.
func AcknowledgeReceipt(ctx context.Context, db *sql.DB, id, actorID int64) (*model.InventoryItem, error) {
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
	if !item.CustodianIs(actorID) {
		return nil, fmt.Errorf("only the custodian can acknowledge receipt: %w", ErrForbidden)
	}
	if item.Status != model.StatusAssigned && item.Status != model.StatusInStock {
		return nil, fmt.Errorf("cannot acknowledge receipt of a %s item: %w", item.Status, ErrInvalidState)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE inventory_items SET status = ?, received_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		string(model.StatusInStock), time.Now().UTC(), id, string(item.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("acknowledging receipt: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("item %d changed concurrently: %w", id, ErrInvalidTransition)
	}

	from := item.Status
	if err := recordEvent(ctx, tx, id, &from, model.StatusInStock, item.AssignedToUserID, item.AssignedToUserID, &actorID, "receipt acknowledged"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing receipt: %w", err)
	}
	return GetItem(ctx, db, id)
}

// DeleteSelfSourcedItem removes a self-sourced item on behalf of its
// custodian or creator. Operator-supplied and sold items cannot be deleted.
func DeleteSelfSourcedItem(ctx context.Context, db *sql.DB, id, actorID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getItem(ctx, tx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if !item.IsSelfSourced {
		return fmt.Errorf("only self-sourced items can be deleted: %w", ErrForbidden)
	}
	if !item.CustodianIs(actorID) && !item.CreatedBy(actorID) {
		return fmt.Errorf("item %d belongs to someone else: %w", id, ErrForbidden)
	}
	if item.Status == model.StatusSold {
		return fmt.Errorf("item %d is already sold: %w", id, ErrInvalidState)
	}
	if err := checkItemsFree(ctx, tx, 0, []int64{id}); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM inventory_items WHERE id = ? AND status != ?`, id, string(model.StatusSold),
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("item %d changed concurrently: %w", id, ErrInvalidTransition)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// SetItemPhoto stores an item's processed photo and thumbnail.
func SetItemPhoto(ctx context.Context, db *sql.DB, id int64, photo, thumbnail []byte) error {
	result, err := db.ExecContext(ctx,
		`UPDATE inventory_items SET photo = ?, thumbnail = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		photo, thumbnail, id,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetItemPhoto returns an item's photo (or its thumbnail). Nil means no photo.
func GetItemPhoto(ctx context.Context, db *sql.DB, id int64, thumbnail bool) ([]byte, error) {
	column := "photo"
	if thumbnail {
		column = "thumbnail"
	}

	var data []byte
	err := db.QueryRowContext(ctx,
		`SELECT `+column+` FROM inventory_items WHERE id = ?`, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item photo: %w", err)
	}
	return data, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
