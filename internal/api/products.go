package api

import (
	"context"
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// StockNotifier is told about every committed stock change.
type StockNotifier interface {
	StockChanged(ctx context.Context, change model.StockChange) bool
}

// ProductsHandler handles catalog stock endpoints.
type ProductsHandler struct {
	DB       *sql.DB
	Notifier StockNotifier
}

type createProductRequest struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

// List handles GET /api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := store.ListProducts(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, req.Name, req.Stock)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, product)
}

// SetStock handles PUT /api/products/{id}/stock. The notifier runs only
// after the new stock level is committed.
func (h *ProductsHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Stock == nil {
		jsonError(w, http.StatusBadRequest, "stock required")
		return
	}

	change, err := store.SetProductStock(r.Context(), h.DB, id, *req.Stock)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.stockChanged(w, r, change)
}

// AdjustStock handles POST /api/products/{id}/stock/adjust with a signed
// delta, for receiving or selling catalog units.
func (h *ProductsHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	change, err := store.AdjustProductStock(r.Context(), h.DB, id, req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.stockChanged(w, r, change)
}

// stockChanged hands a committed change to the notifier and writes the response.
func (h *ProductsHandler) stockChanged(w http.ResponseWriter, r *http.Request, change *model.StockChange) {
	notified := false
	if h.Notifier != nil {
		notified = h.Notifier.StockChanged(r.Context(), *change)
	}

	logging.FromContext(r.Context()).Info("product stock updated",
		zap.Int64("product_id", change.ProductID),
		zap.Int("old_stock", change.OldStock),
		zap.Int("new_stock", change.NewStock),
		zap.Bool("restock", notified),
	)
	jsonResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"oldStock": change.OldStock,
		"newStock": change.NewStock,
		"restock":  notified,
	})
}
