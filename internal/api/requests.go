package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// RequestsHandler handles purchase request endpoints.
type RequestsHandler struct {
	DB *sql.DB
}

type createRequestRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	ItemIDs []int64         `json:"itemIds"`
}

type updateRequestRequest struct {
	Status string `json:"status"`
}

// Rows are decoded one by one so a malformed row fails on its own.
type bulkUpdateRequest struct {
	Updates []json.RawMessage `json:"updates"`
}

// ListMine handles GET /api/purchase-requests.
func (h *RequestsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	requests, err := store.ListPurchaseRequestsForUser(r.Context(), h.DB, GetActor(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if requests == nil {
		requests = []model.PurchaseRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Create handles POST /api/purchase-requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := GetActor(r.Context())
	pr, err := store.CreatePurchaseRequest(r.Context(), h.DB, actor.UserID, req.Amount, req.ItemIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("purchase request created",
		zap.Int64("request_id", pr.ID), zap.Int("items", len(pr.InventoryItems)))
	jsonResponse(w, http.StatusCreated, pr)
}

// ListAll handles GET /api/admin/purchase-requests.
func (h *RequestsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	requests, err := store.ListPurchaseRequests(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if requests == nil {
		requests = []model.PurchaseRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Update handles PATCH /api/admin/purchase-requests/{id}.
func (h *RequestsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid purchase request id")
		return
	}

	var req updateRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pr, err := store.UpdatePurchaseRequestStatus(r.Context(), h.DB, id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("purchase request updated",
		zap.Int64("request_id", id), zap.String("status", pr.Status))
	jsonResponse(w, http.StatusOK, pr)
}

// BulkUpdate handles POST /api/admin/purchase-requests/bulk. Rows are
// applied independently; failed rows are listed in errors.
func (h *RequestsHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Updates) == 0 {
		jsonError(w, http.StatusBadRequest, "updates required")
		return
	}

	updates := make([]model.RequestUpdate, 0, len(req.Updates))
	var malformed []model.RequestUpdateError
	for _, raw := range req.Updates {
		var u model.RequestUpdate
		if err := json.Unmarshal(raw, &u); err != nil {
			malformed = append(malformed, model.RequestUpdateError{ID: rawRowID(raw), Error: "invalid update: " + err.Error()})
			continue
		}
		updates = append(updates, u)
	}

	result := store.BulkUpdatePurchaseRequests(r.Context(), h.DB, updates)
	result.Errors = append(result.Errors, malformed...)

	logging.FromContext(r.Context()).Info("purchase requests bulk updated",
		zap.Int("processed", result.Processed), zap.Int("failed", len(result.Errors)))
	jsonResponse(w, http.StatusOK, map[string]any{
		"success":   true,
		"processed": result.Processed,
		"errors":    result.Errors,
	})
}

// rawRowID returns whatever id a malformed bulk row carried, or nil.
func rawRowID(raw json.RawMessage) any {
	var row struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil
	}
	return row.ID
}
