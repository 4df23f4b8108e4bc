package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRequest is a customer's request to buy one or more items.
// Status is admin-controlled free text.
type PurchaseRequest struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"userId"`
	Status         string          `json:"status"`
	TrackingNumber string          `json:"trackingNumber,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	// Joined fields (not always populated).
	UserEmail      string          `json:"userEmail,omitempty"`
	InventoryItems []InventoryItem `json:"inventoryItems"`
}

// Well-known request statuses. Any other non-empty status is accepted.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusShipped   = "shipped"
	RequestStatusCompleted = "completed"
	RequestStatusRejected  = "rejected"
	RequestStatusReturned  = "returned"
	RequestStatusCancelled = "cancelled"
)

// RequestActive reports whether a request in status still holds its items.
func RequestActive(status string) bool {
	switch status {
	case RequestStatusRejected, RequestStatusReturned, RequestStatusCancelled:
		return false
	}
	return true
}

// RequestUpdate is one row of a bulk purchase request update.
type RequestUpdate struct {
	ID             int64   `json:"id"`
	TrackingNumber *string `json:"trackingNumber,omitempty"`
	Status         *string `json:"status,omitempty"`
}

// RequestUpdateError reports why one bulk row was not applied. ID echoes
// the row's id as sent, which may not be a number for malformed rows.
type RequestUpdateError struct {
	ID    any    `json:"id"`
	Error string `json:"error"`
}

// BulkUpdateResult is the outcome of a best-effort bulk update.
type BulkUpdateResult struct {
	Processed int                  `json:"processed"`
	Errors    []RequestUpdateError `json:"errors"`
}
