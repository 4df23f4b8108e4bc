package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func TestSetItemStatusAssignedRequiresCustodian(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	item := mustItem(t, database, ItemFields{Name: "watch"})

	_, err := SetItemStatus(ctx, database, item.ID, StatusChange{Status: model.StatusAssigned}, admin)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.StatusInStock {
		t.Errorf("expected item unchanged, got %q", got.Status)
	}
}

func TestSetItemStatusUnknown(t *testing.T) {
	database := db.NewTestDB(t)
	item := mustItem(t, database, ItemFields{Name: "watch"})

	_, err := SetItemStatus(context.Background(), database, item.ID, StatusChange{Status: "LOST"}, 1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestShippedItemKeepsCustodian(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	u1 := mustUser(t, database, "u1@example.com", model.RoleStaff)
	u2 := mustUser(t, database, "u2@example.com", model.RoleStaff)

	item := mustItem(t, database, ItemFields{Name: "watch"})
	mustStatus(t, database, item.ID, model.StatusAssigned, &u1, admin)
	mustStatus(t, database, item.ID, model.StatusShipped, nil, admin)

	_, err := SetItemStatus(ctx, database, item.ID, StatusChange{Status: model.StatusAssigned, AssignedToUserID: &u2}, admin)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.StatusShipped || !got.CustodianIs(u1) {
		t.Errorf("expected SHIPPED with u1, got %s %v", got.Status, got.AssignedToUserID)
	}

	// Same custodian is fine.
	got, err = SetItemStatus(ctx, database, item.ID, StatusChange{Status: model.StatusAssigned, AssignedToUserID: &u1}, admin)
	if err != nil {
		t.Fatalf("SetItemStatus: %v", err)
	}
	if got.Status != model.StatusAssigned {
		t.Errorf("expected ASSIGNED, got %q", got.Status)
	}
}

func TestReturnedClearsCustodian(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	staff := mustUser(t, database, "staff@example.com", model.RoleStaff)

	item := mustItem(t, database, ItemFields{Name: "watch"})
	mustStatus(t, database, item.ID, model.StatusAssigned, &staff, admin)

	got, err := SetItemStatus(ctx, database, item.ID, StatusChange{Status: model.StatusReturned, Note: ptr("box damaged")}, admin)
	if err != nil {
		t.Fatalf("SetItemStatus: %v", err)
	}
	if got.AssignedToUserID != nil {
		t.Errorf("expected custodian cleared, got %d", *got.AssignedToUserID)
	}
	if got.Note != "box damaged" {
		t.Errorf("expected note 'box damaged', got %q", got.Note)
	}
}

func TestSoldIsFinal(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	item := mustItem(t, database, ItemFields{Name: "watch"})
	mustStatus(t, database, item.ID, model.StatusSold, nil, admin)

	for _, s := range []model.ItemStatus{model.StatusInStock, model.StatusReturned, model.StatusSold} {
		_, err := SetItemStatus(ctx, database, item.ID, StatusChange{Status: s}, admin)
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("SOLD -> %s: expected ErrInvalidState, got %v", s, err)
		}
	}
	if _, err := AssignItem(ctx, database, item.ID, admin, admin); !errors.Is(err, ErrInvalidState) {
		t.Errorf("assign sold item: expected ErrInvalidState, got %v", err)
	}
}

func TestSellSelfSourcedRequiresCompliance(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	staff := mustUser(t, database, "staff@example.com", model.RoleStaff)
	item := mustItem(t, database, ItemFields{Name: "watch", IsSelfSourced: true, Supplier: ptr("walk-in")})

	_, err := SetItemStatus(ctx, database, item.ID, StatusChange{Status: model.StatusSold}, staff)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAssignToUnknownUser(t *testing.T) {
	database := db.NewTestDB(t)
	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	item := mustItem(t, database, ItemFields{Name: "watch"})

	if _, err := AssignItem(context.Background(), database, item.ID, 9999, admin); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReassignResetsReceipt(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	u1 := mustUser(t, database, "u1@example.com", model.RoleStaff)
	u2 := mustUser(t, database, "u2@example.com", model.RoleStaff)

	item := mustItem(t, database, ItemFields{Name: "watch"})
	AssignItem(ctx, database, item.ID, u1, admin)
	AcknowledgeReceipt(ctx, database, item.ID, u1)

	got, err := AssignItem(ctx, database, item.ID, u2, admin)
	if err != nil {
		t.Fatalf("AssignItem: %v", err)
	}
	if !got.CustodianIs(u2) || got.ReceivedAt != nil {
		t.Errorf("expected u2 with no receipt, got %v %v", got.AssignedToUserID, got.ReceivedAt)
	}
}

func TestAssignItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	u1 := mustUser(t, database, "u1@example.com", model.RoleStaff)
	u2 := mustUser(t, database, "u2@example.com", model.RoleStaff)

	sold := mustItem(t, database, ItemFields{Name: "sold"})
	mustStatus(t, database, sold.ID, model.StatusSold, nil, admin)
	inStock := mustItem(t, database, ItemFields{Name: "in stock"})
	assigned := mustItem(t, database, ItemFields{Name: "assigned"})
	mustStatus(t, database, assigned.ID, model.StatusAssigned, &u1, admin)

	result, err := AssignItems(ctx, database, []int64{sold.ID, inStock.ID, assigned.ID, 9999}, u2, admin)
	if err != nil {
		t.Fatalf("AssignItems: %v", err)
	}
	if result.Updated != 2 {
		t.Errorf("expected 2 updated, got %d", result.Updated)
	}
	if result.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", result.Skipped)
	}

	for _, id := range []int64{inStock.ID, assigned.ID} {
		got, _ := GetItem(ctx, database, id)
		if got.Status != model.StatusAssigned || !got.CustodianIs(u2) {
			t.Errorf("item %d: expected ASSIGNED to u2, got %s %v", id, got.Status, got.AssignedToUserID)
		}
	}
	got, _ := GetItem(ctx, database, sold.ID)
	if got.Status != model.StatusSold {
		t.Errorf("sold item changed to %s", got.Status)
	}
}

func TestAssignItemsNoneEligible(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustUser(t, database, "admin@example.com", model.RoleAdmin)
	item := mustItem(t, database, ItemFields{Name: "shipped"})
	mustStatus(t, database, item.ID, model.StatusShipped, nil, admin)

	_, err := AssignItems(ctx, database, []int64{item.ID}, admin, admin)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := AssignItems(ctx, database, nil, admin, admin); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty ids: expected ErrInvalidArgument, got %v", err)
	}
}
