package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindcare-backend/internal/services"
)

const (
	wsReadLimit    = 64 * 1024
	wsReadTimeout  = 90 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second

	tooManyRequestsMessage = "Too many requests. Please slow down."
)

// ChatFrame is what the client sends over the chat socket.
type ChatFrame struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id,omitempty"`
}

// ChatEvent is what the server sends back: a "reply" or an "error".
type ChatEvent struct {
	Type      string   `json:"type"`
	Response  string   `json:"response,omitempty"`
	Sentiment *float64 `json:"sentiment,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	IsCrisis  bool     `json:"is_crisis"`
	Error     string   `json:"error,omitempty"`
}

// ChatWebSocket handles GET /ws/chat. Each text frame runs the same
// pipeline as POST /api/chat and is answered in order.
func (h *Handler) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	go keepAlive(ctx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("chat socket closed", zap.Error(err))
			}
			return
		}

		var event ChatEvent
		if h.allowFrame != nil && !h.allowFrame(r) {
			event = ChatEvent{Type: "error", Error: tooManyRequestsMessage}
		} else {
			event = h.handleFrame(ctx, data)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, data []byte) ChatEvent {
	var frame ChatFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return ChatEvent{Type: "error", Error: "Invalid message format"}
	}

	res, err := h.chat.Chat(ctx, services.ChatInput{Message: frame.Message, UserID: frame.UserID})
	if errors.Is(err, services.ErrEmptyMessage) {
		return ChatEvent{Type: "error", Error: "Message is required"}
	}
	if err != nil {
		h.log.Error("chat over websocket failed", zap.Error(err))
		return ChatEvent{Type: "error", Error: "Internal server error"}
	}

	resp := newChatResponse(res)
	return ChatEvent{
		Type:      "reply",
		Response:  resp.Response,
		Sentiment: &resp.Sentiment,
		Timestamp: resp.Timestamp,
		IsCrisis:  resp.IsCrisis,
	}
}

// keepAlive pings the client so the pong handler can extend the read
// deadline. WriteControl is safe to call next to the reader loop's writes.
func keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
