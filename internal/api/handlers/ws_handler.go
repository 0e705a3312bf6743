package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/Navin1-11-04/crisp/internal/services"
	"github.com/Navin1-11-04/crisp/internal/workers"
)

// WSHandler streams the timer worker's events (ticks, expiries,
// question advances, completion) to the candidate's browser and
// accepts pause/resume over the same socket.
type WSHandler struct {
	sessions services.SessionService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions services.SessionService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // pause | resume
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) SessionWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	// the socket always binds to the caller's own active session
	sess, err := h.sessions.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	sessionID := sess.ID

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, workers.EventChannel(sessionID))
	defer pubsub.Close()

	// reader: pause/resume commands
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
				continue
			}

			switch msg.Type {
			case "pause":
				if _, err := h.sessions.Pause(ctx, userID); err != nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"CONFLICT","message":"pause failed"}`))
					continue
				}
				_ = wc.writeText([]byte(`{"type":"status","status":"paused"}`))

			case "resume":
				if _, err := h.sessions.Resume(ctx, userID); err != nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"CONFLICT","message":"resume failed"}`))
					continue
				}
				_ = wc.writeText([]byte(`{"type":"status","status":"running"}`))

			default:
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
			}
		}
	}()

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			// worker publishes JSON; forward as-is
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}
