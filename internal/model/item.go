package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus is the lifecycle state of a single physical item.
type ItemStatus string

// Item statuses.
const (
	StatusInStock  ItemStatus = "IN_STOCK"
	StatusAssigned ItemStatus = "ASSIGNED"
	StatusShipped  ItemStatus = "SHIPPED"
	StatusSold     ItemStatus = "SOLD"
	StatusReturned ItemStatus = "RETURNED"
)

// Valid reports whether s is one of the known item statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusInStock, StatusAssigned, StatusShipped, StatusSold, StatusReturned:
		return true
	}
	return false
}

// InventoryItem is one individually tracked physical good.
type InventoryItem struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Status           ItemStatus `json:"status"`
	IsSelfSourced    bool       `json:"isSelfSourced"`
	AdminID          *int64     `json:"adminId"`
	AssignedToUserID *int64     `json:"assignedToUserId"`

	// Acquisition provenance recorded for resale compliance.
	Supplier             *string `json:"supplier"`
	SupplierName         *string `json:"supplierName"`
	SupplierAddress      *string `json:"supplierAddress"`
	SupplierOccupation   *string `json:"supplierOccupation"`
	SupplierAge          *int    `json:"supplierAge"`
	IDVerificationMethod *string `json:"idVerificationMethod"`

	PurchaseDate *time.Time          `json:"purchaseDate"`
	CostPrice    decimal.NullDecimal `json:"costPrice"`
	ReceivedAt   *time.Time          `json:"receivedAt"`
	Note         string              `json:"note,omitempty"`
	HasPhoto     bool                `json:"hasPhoto"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// CustodianIs reports whether userID currently holds the item.
func (i *InventoryItem) CustodianIs(userID int64) bool {
	return i.AssignedToUserID != nil && *i.AssignedToUserID == userID
}

// CreatedBy reports whether userID registered the item.
func (i *InventoryItem) CreatedBy(userID int64) bool {
	return i.AdminID != nil && *i.AdminID == userID
}

// ComplianceComplete reports whether every supplier field required for a
// self-sourced resale record is present.
func (i *InventoryItem) ComplianceComplete() bool {
	present := func(s *string) bool { return s != nil && *s != "" }
	return present(i.Supplier) &&
		present(i.SupplierName) &&
		present(i.SupplierAddress) &&
		present(i.SupplierOccupation) &&
		i.SupplierAge != nil &&
		present(i.IDVerificationMethod)
}

// ItemEvent is one entry in an item's custody/status history.
type ItemEvent struct {
	ID         int64       `json:"id"`
	ItemID     int64       `json:"itemId"`
	FromStatus *ItemStatus `json:"fromStatus,omitempty"`
	ToStatus   ItemStatus  `json:"toStatus"`
	FromUserID *int64      `json:"fromUserId,omitempty"`
	ToUserID   *int64      `json:"toUserId,omitempty"`
	ActorID    *int64      `json:"actorId,omitempty"`
	Note       string      `json:"note,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}
