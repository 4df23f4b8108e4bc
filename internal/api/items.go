package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erazemk/zaloga/internal/imaging"
	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
	"github.com/erazemk/zaloga/internal/telemetry"
)

// ItemsHandler handles inventory item endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	Name          string `json:"name"`
	IsSelfSourced bool   `json:"isSelfSourced"`
	Note          string `json:"note"`
	model.SupplierInfo
}

type setStatusRequest struct {
	Status           model.ItemStatus `json:"status"`
	AssignedToUserID *int64           `json:"assignedToUserId"`
	Note             *string          `json:"note"`
}

type assignRequest struct {
	AssignedToUserID *int64 `json:"assignedToUserId"`
}

type bulkAssignRequest struct {
	ItemIDs          []int64 `json:"itemIds"`
	AssignedToUserID *int64  `json:"assignedToUserId"`
}

type supplierRequest struct {
	ItemIDs []int64 `json:"itemIds"`
	model.SupplierInfo
}

// itemFields converts the create request, parsing the text-typed
// compliance fields.
func (req createItemRequest) itemFields(adminID int64) (store.ItemFields, error) {
	f := store.ItemFields{
		Name:                 req.Name,
		IsSelfSourced:        req.IsSelfSourced,
		AdminID:              &adminID,
		Supplier:             req.Supplier,
		SupplierName:         req.SupplierName,
		SupplierAddress:      req.SupplierAddress,
		SupplierOccupation:   req.SupplierOccupation,
		IDVerificationMethod: req.IDVerificationMethod,
		Note:                 req.Note,
	}
	if req.SupplierAge != nil {
		age, err := model.ParseSupplierAge(string(*req.SupplierAge))
		if err != nil {
			return f, fmt.Errorf("%v: %w", err, store.ErrInvalidArgument)
		}
		f.SupplierAge = &age
	}
	if req.PurchaseDate != nil {
		d, err := model.ParsePurchaseDate(*req.PurchaseDate)
		if err != nil {
			return f, fmt.Errorf("%v: %w", err, store.ErrInvalidArgument)
		}
		f.PurchaseDate = &d
	}
	if req.CostPrice != nil {
		price, err := model.ParseCostPrice(string(*req.CostPrice))
		if err != nil {
			return f, fmt.Errorf("%v: %w", err, store.ErrInvalidArgument)
		}
		f.CostPrice = decimal.NewNullDecimal(price)
	}
	return f, nil
}

// Create handles POST /api/items. Admins and staff register any item;
// other roles may only register self-sourced items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if !req.IsSelfSourced && !model.CanManageInventory(actor.Role) {
		jsonError(w, http.StatusForbidden, "only admin or staff can register operator-supplied items")
		return
	}

	fields, err := req.itemFields(actor.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("item registered",
		zap.Int64("item_id", item.ID), zap.Bool("self_sourced", item.IsSelfSourced))
	jsonResponse(w, http.StatusCreated, item)
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.ItemFilter

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = model.ItemStatus(s)
		if !filter.Status.Valid() {
			jsonError(w, http.StatusBadRequest, "invalid status")
			return
		}
	}
	if s := r.URL.Query().Get("assigned_to"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid assigned_to")
			return
		}
		filter.AssignedTo = id
	}

	h.list(w, r, filter)
}

// Mine handles GET /api/items/mine.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, store.ItemFilter{AssignedTo: GetActor(r.Context()).UserID})
}

func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request, filter store.ItemFilter) {
	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// SetStatus handles PATCH /api/items/{id}.
func (h *ItemsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := GetActor(r.Context())
	item, err := store.SetItemStatus(r.Context(), h.DB, id, store.StatusChange{
		Status:           req.Status,
		AssignedToUserID: req.AssignedToUserID,
		Note:             req.Note,
	}, actor.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	telemetry.RecordItemTransition(string(item.Status))
	logging.FromContext(r.Context()).Info("item status changed",
		zap.Int64("item_id", id), zap.String("status", string(item.Status)))
	jsonResponse(w, http.StatusOK, item)
}

// Assign handles POST /api/items/{id}/assign.
func (h *ItemsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AssignedToUserID == nil {
		jsonError(w, http.StatusBadRequest, "assignedToUserId required")
		return
	}

	item, err := store.AssignItem(r.Context(), h.DB, id, *req.AssignedToUserID, GetActor(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	telemetry.RecordItemTransition(string(item.Status))
	logging.FromContext(r.Context()).Info("item assigned",
		zap.Int64("item_id", id), zap.Int64("custodian_id", *req.AssignedToUserID))
	jsonResponse(w, http.StatusOK, item)
}

// BulkAssign handles POST /api/items/assign.
func (h *ItemsHandler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AssignedToUserID == nil {
		jsonError(w, http.StatusBadRequest, "assignedToUserId required")
		return
	}

	result, err := store.AssignItems(r.Context(), h.DB, req.ItemIDs, *req.AssignedToUserID, GetActor(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	for range result.Updated {
		telemetry.RecordItemTransition(string(model.StatusAssigned))
	}
	logging.FromContext(r.Context()).Info("items assigned",
		zap.Int64("custodian_id", *req.AssignedToUserID),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   result.Updated,
		"skipped": result.Skipped,
		"message": fmt.Sprintf("%d item(s) assigned", result.Updated),
	})
}

// RecordSupplier handles PUT /api/items/supplier. Items the caller does not
// hold are skipped.
func (h *ItemsHandler) RecordSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := store.RecordSupplierInfo(r.Context(), h.DB, req.ItemIDs, GetActor(r.Context()).UserID, req.SupplierInfo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "count": n})
}

// Receive handles POST /api/items/{id}/receive.
func (h *ItemsHandler) Receive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.AcknowledgeReceipt(r.Context(), h.DB, id, GetActor(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteSelfSourcedItem(r.Context(), h.DB, id, GetActor(r.Context()).UserID); err != nil {
		writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("item deleted", zap.Int64("item_id", id))
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// GetHistory handles GET /api/items/{id}/history.
func (h *ItemsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	history, err := store.GetItemHistory(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if history == nil {
		history = []model.ItemEvent{}
	}
	jsonResponse(w, http.StatusOK, history)
}

// UploadPhoto handles PUT /api/items/{id}/photo. The custodian, the
// creator, admins and staff may set the photo.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	actor := GetActor(r.Context())
	if !model.CanManageInventory(actor.Role) && !item.CustodianIs(actor.UserID) && !item.CreatedBy(actor.UserID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, id, photo.Full, photo.Thumbnail); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// GetPhoto handles GET /api/items/{id}/photo. ?thumb=1 returns the thumbnail.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	thumb := r.URL.Query().Get("thumb") != ""
	data, err := store.GetItemPhoto(r.Context(), h.DB, id, thumb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", imaging.MIME)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
