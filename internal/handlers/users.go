package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/mindcare-backend/internal/store"
	"github.com/AnshRaj112/mindcare-backend/pkg/utils"
)

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	user, err := h.chat.CreateUser(ctx, req.Username, req.Email)
	if err != nil {
		var verr *utils.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, store.ErrDuplicate):
			respondError(w, http.StatusConflict, "Username or email already exists")
		default:
			h.log.Error("failed to create user", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// GetUser handles GET /api/users/{user_id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	user, err := h.chat.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.log.Error("failed to load user", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
