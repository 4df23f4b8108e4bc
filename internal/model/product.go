package model

import "time"

// Product is a sellable catalog entry. Only its stock level matters here.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StockChange describes a committed stock update on a product.
type StockChange struct {
	ProductID   int64
	ProductName string
	OldStock    int
	NewStock    int
}

// IsRestock reports whether the change brings an out-of-stock product back.
func (c StockChange) IsRestock() bool {
	return c.OldStock == 0 && c.NewStock > 0
}

// RestockSubscription asks for a notification when a product is restocked.
type RestockSubscription struct {
	ID             int64      `json:"id"`
	ProductID      int64      `json:"productId"`
	Email          string     `json:"email"`
	UserID         *int64     `json:"userId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastNotifiedAt *time.Time `json:"lastNotifiedAt,omitempty"`
}
