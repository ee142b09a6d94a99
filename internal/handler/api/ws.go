package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pixmuse/internal/handler/middleware"
	"pixmuse/internal/notifier"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// cross-origin policy is enforced by the CORS middleware for the rest
	// of the API; WS tokens are validated before the upgrade
	CheckOrigin: func(*http.Request) bool { return true },
}

type wsClientMessage struct {
	Action    string `json:"action"`
	RequestID string `json:"requestId"`
}

type wsErrorMessage struct {
	Error string `json:"error"`
}

// wsConn serializes writes; snapshots, errors and pings come from
// different goroutines and gorilla allows a single writer only.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) write(messageType int, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteMessage(messageType, payload)
}

type WSHandler struct {
	hub *notifier.Hub
	log *slog.Logger
}

func NewWSHandler(hub *notifier.Hub, log *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

// @Summary Subscribe to generation updates
// @Description WebSocket endpoint; send {"action":"subscribe","requestId":"..."} to stream status snapshots
// @Tags processing
// @Security BearerAuth
// @Success 101
// @Failure 401 {object} map[string]string
// @Router /ws/processing [get]
func (h *WSHandler) Processing(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	wc := &wsConn{conn: conn}

	client, err := h.hub.NewClient(userID)
	if err != nil {
		_ = wc.write(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	go h.writePump(wc, client)
	h.readPump(c, wc, client)
}

func (h *WSHandler) readPump(c *gin.Context, wc *wsConn, client *notifier.Client) {
	conn := wc.conn
	defer func() {
		client.Close()
		_ = conn.Close()
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", "error", err)
			}
			return
		}

		var msg wsClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(wc, "invalid message")
			continue
		}
		requestID, err := uuid.Parse(msg.RequestID)
		if err != nil {
			h.sendError(wc, "invalid requestId")
			continue
		}

		switch msg.Action {
		case "subscribe":
			if err := client.Subscribe(c.Request.Context(), requestID); err != nil {
				switch {
				case errors.Is(err, notifier.ErrRequestNotFound):
					h.sendError(wc, "request not found")
				case errors.Is(err, notifier.ErrHubClosed):
					return
				default:
					h.sendError(wc, "subscription failed")
				}
			}
		case "unsubscribe":
			client.Unsubscribe(requestID)
		default:
			h.sendError(wc, "unknown action")
		}
	}
}

func (h *WSHandler) writePump(wc *wsConn, client *notifier.Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = wc.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.Send():
			if !ok {
				_ = wc.write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := wc.write(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := wc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) sendError(wc *wsConn, msg string) {
	payload, _ := json.Marshal(wsErrorMessage{Error: msg})
	_ = wc.write(websocket.TextMessage, payload)
}
