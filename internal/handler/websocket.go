package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
	"github.com/TinyKitten/TrainLCDWeb/internal/hub"
	"github.com/TinyKitten/TrainLCDWeb/internal/tracking"
)

// WSHandler drives one tracking session per websocket connection. The
// connection carries the rider's commands and position fixes inbound and
// tracking updates outbound. Closing the connection tears the session down.
type WSHandler struct {
	hub     *hub.Hub
	manager *tracking.Manager
	logger  *slog.Logger
}

func NewWSHandler(h *hub.Hub, m *tracking.Manager, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: h, manager: m, logger: logger}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SelectLinePayload struct {
	LineID int `json:"lineId"`
}

type SelectBoundPayload struct {
	Direction domain.Direction `json:"direction"`
	Station   domain.Station   `json:"station"`
}

type WatchPayload struct {
	SessionIDs []string `json:"sessionIds"`
}

type SessionMessage struct {
	Type    string         `json:"type"`
	Payload SessionPayload `json:"payload"`
}

type SessionPayload struct {
	SessionID string `json:"sessionId"`
}

type PongMessage struct {
	Type string `json:"type"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := h.manager.Create(ctx)
	client := hub.NewClient(session.ID(), 256)

	h.hub.Register(client)
	h.hub.Subscribe(client, []string{session.ID()})

	h.sendSessionID(client, session.ID())

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client, session)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client, session *tracking.Session) {
	defer func() {
		h.manager.Stop(session.ID())
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "session_id", session.ID(), "error", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "session_id", session.ID(), "error", err)
			continue
		}

		switch msg.Type {
		case "fix":
			var fix domain.Coordinates
			if err := json.Unmarshal(msg.Payload, &fix); err != nil {
				continue
			}
			session.OnFix(fix)

		case "selectLine":
			var payload SelectLinePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			session.SelectLine(payload.LineID)

		case "selectBound":
			var payload SelectBoundPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			session.SelectBound(payload.Direction, payload.Station)

		case "dismissAccuracy":
			session.DismissBadAccuracy()

		case "watch":
			var payload WatchPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			if len(payload.SessionIDs) > 0 {
				h.hub.Subscribe(client, payload.SessionIDs)
			}

		case "unwatch":
			var payload WatchPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			if len(payload.SessionIDs) > 0 {
				h.hub.Unsubscribe(client, payload.SessionIDs)
			}

		case "ping":
			h.sendPong(client)
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) sendSessionID(client *hub.Client, sessionID string) {
	msg := SessionMessage{
		Type:    "session",
		Payload: SessionPayload{SessionID: sessionID},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.Debug("failed to send session id, buffer full", "session_id", sessionID)
	}
}

func (h *WSHandler) sendPong(client *hub.Client) {
	data, err := json.Marshal(PongMessage{Type: "pong"})
	if err != nil {
		return
	}

	select {
	case client.Send <- data:
	default:
	}
}
