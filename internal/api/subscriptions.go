package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/zaloga/internal/store"
)

// SubscriptionsHandler handles restock subscription sign-up. It is public.
type SubscriptionsHandler struct {
	DB *sql.DB
}

type subscriptionRequest struct {
	ProductID int64  `json:"productId"`
	Email     string `json:"email"`
	UserID    *int64 `json:"userId"`
}

// Create handles POST /api/restock-subscriptions.
func (h *SubscriptionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == 0 || req.Email == "" {
		jsonError(w, http.StatusBadRequest, "productId and email required")
		return
	}

	if _, err := store.CreateRestockSubscription(r.Context(), h.DB, req.ProductID, req.Email, req.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]bool{"success": true})
}
