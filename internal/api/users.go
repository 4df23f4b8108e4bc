package api

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// UsersHandler handles the user directory (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type updateUserRequest struct {
	Role string `json:"role"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}

	existing, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "email already exists")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Email, req.Name, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("user created",
		zap.Int64("new_user_id", user.ID), zap.String("role", user.Role))
	jsonResponse(w, http.StatusCreated, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Prevent the admin from locking themselves out.
	actor := GetActor(r.Context())
	if actor.UserID == id && req.Role != model.RoleAdmin {
		jsonError(w, http.StatusBadRequest, "cannot remove your own admin role")
		return
	}

	if err := store.UpdateUserRole(r.Context(), h.DB, id, req.Role); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}
