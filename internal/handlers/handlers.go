package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindcare-backend/internal/services"
)

const (
	maxBodyBytes = 64 * 1024
	storeTimeout = 5 * time.Second
)

// Handler serves the MindCare HTTP and WebSocket API.
type Handler struct {
	chat     *services.ChatService
	log      *zap.Logger
	upgrader websocket.Upgrader

	// allowFrame, when set, is checked for every chat socket frame.
	allowFrame func(*http.Request) bool
}

func New(chat *services.ChatService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		chat: chat,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS is enforced at the HTTP layer; any origin may open the socket.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// LimitChatFrames rate limits each frame on the chat socket with allow,
// called with the upgrade request. The upgrade itself is limited by the
// route middleware.
func (h *Handler) LimitChatFrames(allow func(*http.Request) bool) *Handler {
	h.allowFrame = allow
	return h
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// NotFound and MethodNotAllowed keep router errors in the JSON error shape.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
