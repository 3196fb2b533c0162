package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindcare-backend/internal/models"
	"github.com/AnshRaj112/mindcare-backend/internal/services"
	"github.com/AnshRaj112/mindcare-backend/pkg/utils"
)

type ChatRequest struct {
	Message string `json:"message"`
	UserID  *int64 `json:"user_id,omitempty"`
}

type ChatResponse struct {
	Response  string  `json:"response"`
	Sentiment float64 `json:"sentiment"`
	Timestamp string  `json:"timestamp"`
	IsCrisis  bool    `json:"is_crisis"`
}

type MoodRequest struct {
	UserID          *int64 `json:"user_id"`
	MoodLevel       *int   `json:"mood_level"`
	MoodDescription string `json:"mood_description,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type MoodResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// decodeBody decodes a bounded JSON body. An empty body decodes to the zero
// value so required-field checks produce the error message.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Chat handles POST /api/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in := services.ChatInput{Message: req.Message}
	if req.UserID != nil {
		in.UserID = *req.UserID
	}

	res, err := h.chat.Chat(r.Context(), in)
	if errors.Is(err, services.ErrEmptyMessage) {
		respondError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if err != nil {
		h.log.Error("chat failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, newChatResponse(res))
}

func newChatResponse(res services.ChatResult) ChatResponse {
	return ChatResponse{
		Response:  res.Response,
		Sentiment: res.Sentiment,
		Timestamp: res.Timestamp.Format(time.RFC3339Nano),
		IsCrisis:  res.IsCrisis,
	}
}

// LogMood handles POST /api/mood.
func (h *Handler) LogMood(w http.ResponseWriter, r *http.Request) {
	var req MoodRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == nil || *req.UserID <= 0 || req.MoodLevel == nil {
		respondError(w, http.StatusBadRequest, "user_id and mood_level are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	entry := &models.MoodEntry{
		UserID:          *req.UserID,
		MoodLevel:       *req.MoodLevel,
		MoodDescription: req.MoodDescription,
		Notes:           req.Notes,
	}
	if err := h.chat.LogMood(ctx, entry); err != nil {
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Message)
			return
		}
		if errors.Is(err, services.ErrUnknownUser) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error("failed to log mood", zap.Int64("user_id", entry.UserID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, MoodResponse{Message: "Mood logged successfully", ID: entry.ID})
}

// MoodHistory handles GET /api/mood-history/{user_id}.
func (h *Handler) MoodHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	entries, err := h.chat.MoodHistory(ctx, userID)
	if err != nil {
		h.log.Error("failed to load mood history", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// ConversationHistory handles GET /api/conversation-history/{user_id}.
func (h *Handler) ConversationHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	convs, err := h.chat.ConversationHistory(ctx, userID)
	if err != nil {
		h.log.Error("failed to load conversation history", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, convs)
}

// userIDParam reads {user_id}. The route only matches digits, so a parse
// failure means the number overflowed.
func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		NotFound(w, r)
		return 0, false
	}
	return id, true
}
