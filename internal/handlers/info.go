package handlers

import (
	"net/http"

	"github.com/AnshRaj112/mindcare-backend/internal/services"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Message: "MindCare AI Backend is running",
	})
}

func (h *Handler) Resources(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, services.Resources())
}
