package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/zaloga/internal/model"
)

func mustUser(t *testing.T, database *sql.DB, email, role string) int64 {
	t.Helper()
	u, err := CreateUser(context.Background(), database, email, "", role)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u.ID
}

func mustItem(t *testing.T, database *sql.DB, f ItemFields) *model.InventoryItem {
	t.Helper()
	item, err := CreateItem(context.Background(), database, f)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

// mustStatus forces an item into status through the normal transition path.
func mustStatus(t *testing.T, database *sql.DB, id int64, status model.ItemStatus, custodian *int64, actor int64) {
	t.Helper()
	_, err := SetItemStatus(context.Background(), database, id, StatusChange{Status: status, AssignedToUserID: custodian}, actor)
	if err != nil {
		t.Fatalf("SetItemStatus(%d, %s): %v", id, status, err)
	}
}

func ptr[T any](v T) *T { return &v }
