package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/keychain-connect/backend/internal/auth"
	"github.com/keychain-connect/backend/internal/config"
	"github.com/keychain-connect/backend/internal/events"
	"go.uber.org/zap"
)

// wsConn is the part of a websocket connection the hub writes to.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
}

// WSHub pushes approval events to the keychain sessions of the controller
// they belong to.
type WSHub struct {
	cfg         *config.Config
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[uuid.UUID][]wsConn
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:         cfg,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[uuid.UUID][]wsConn),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.ChannelApprovals, h.dispatch)
}

func (h *WSHub) dispatch(event events.Event) {
	id, err := uuid.Parse(event.ControllerID)
	if err != nil {
		h.log.Warn("event without controller", zap.String("type", event.Type))
		return
	}
	h.SendToController(id, event)
}

func (h *WSHub) SendToController(controllerID uuid.UUID, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[controllerID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("ws write failed", zap.String("controller_id", controllerID.String()), zap.Error(err))
		}
	}
}

func (h *WSHub) register(id uuid.UUID, conn wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[id] = append(h.connections[id], conn)
}

func (h *WSHub) unregister(id uuid.UUID, conn wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.connections[id]
	for i, c := range conns {
		if c == conn {
			h.connections[id] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[id]) == 0 {
		delete(h.connections, id)
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	id := claims.ControllerID
	h.register(id, conn)
	defer func() {
		h.unregister(id, conn)
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
