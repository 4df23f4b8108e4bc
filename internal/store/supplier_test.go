package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func TestRecordSupplierInfo(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	staff := mustUser(t, database, "staff@example.com", model.RoleStaff)
	other := mustUser(t, database, "other@example.com", model.RoleStaff)

	mine := mustItem(t, database, ItemFields{Name: "mine"})
	mustStatus(t, database, mine.ID, model.StatusAssigned, &staff, admin)
	theirs := mustItem(t, database, ItemFields{Name: "theirs"})
	mustStatus(t, database, theirs.ID, model.StatusAssigned, &other, admin)

	n, err := RecordSupplierInfo(ctx, database, []int64{mine.ID, theirs.ID}, staff, model.SupplierInfo{
		SupplierName: ptr("Jane Roe"),
		SupplierAge:  ptr(model.Text("41")),
		PurchaseDate: ptr("2024-05-02"),
		CostPrice:    ptr(model.Text("99.90")),
	})
	if err != nil {
		t.Fatalf("RecordSupplierInfo: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 item updated, got %d", n)
	}

	got, _ := GetItem(ctx, database, mine.ID)
	if got.SupplierName == nil || *got.SupplierName != "Jane Roe" {
		t.Errorf("expected supplier name 'Jane Roe', got %v", got.SupplierName)
	}
	if got.SupplierAge == nil || *got.SupplierAge != 41 {
		t.Errorf("expected supplier age 41, got %v", got.SupplierAge)
	}
	if got.PurchaseDate == nil || got.PurchaseDate.Format("2006-01-02") != "2024-05-02" {
		t.Errorf("expected purchase date 2024-05-02, got %v", got.PurchaseDate)
	}
	if got.CostPrice.Decimal.String() != "99.9" {
		t.Errorf("expected cost price 99.9, got %s", got.CostPrice.Decimal)
	}

	untouched, _ := GetItem(ctx, database, theirs.ID)
	if untouched.SupplierName != nil {
		t.Error("expected other custodian's item to be untouched")
	}
}

func TestRecordSupplierInfoBadAge(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	staff := mustUser(t, database, "staff@example.com", model.RoleStaff)
	item := mustItem(t, database, ItemFields{Name: "mine"})
	mustStatus(t, database, item.ID, model.StatusAssigned, &staff, admin)

	_, err := RecordSupplierInfo(ctx, database, []int64{item.ID}, staff, model.SupplierInfo{
		SupplierName: ptr("Jane Roe"),
		SupplierAge:  ptr(model.Text("abc")),
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.SupplierName != nil {
		t.Error("expected no field written when validation fails")
	}
}

func TestRecordSupplierInfoEmpty(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := RecordSupplierInfo(ctx, database, []int64{1}, 1, model.SupplierInfo{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("no fields: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := RecordSupplierInfo(ctx, database, nil, 1, model.SupplierInfo{Supplier: ptr("x")}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("no ids: expected ErrInvalidArgument, got %v", err)
	}
}

func TestRecordSupplierInfoSkipsSold(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	staff := mustUser(t, database, "staff@example.com", model.RoleStaff)
	item := mustItem(t, database, ItemFields{Name: "sold"})
	mustStatus(t, database, item.ID, model.StatusAssigned, &staff, admin)
	mustStatus(t, database, item.ID, model.StatusSold, nil, admin)

	n, err := RecordSupplierInfo(ctx, database, []int64{item.ID}, staff, model.SupplierInfo{Supplier: ptr("x")})
	if err != nil {
		t.Fatalf("RecordSupplierInfo: %v", err)
	}
	if n != 0 {
		t.Errorf("expected sold item to be skipped, got %d updated", n)
	}
}
