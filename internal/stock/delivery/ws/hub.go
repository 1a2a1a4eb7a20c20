package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/logger"
)

const broadcastBuffer = 256

// Message is one frame of the live stock feed.
type Message struct {
	Type string `json:"type"`
	domain.QuantChange
}

type client struct {
	conn     *websocket.Conn
	tenantID uint
}

type frame struct {
	tenantID uint
	data     []byte
}

// Hub fans quant changes out to the back-office clients of each tenant.
type Hub struct {
	clients    map[*websocket.Conn]uint
	register   chan client
	unregister chan *websocket.Conn
	broadcast  chan frame
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]uint),
		register:   make(chan client),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan frame, broadcastBuffer),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.conn] = c.tenantID
			h.mu.Unlock()
			logger.Debug(ctx).Uint("tenant_id", c.tenantID).Msg("Stock feed client connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case f := <-h.broadcast:
			h.mu.Lock()
			for conn, tenantID := range h.clients {
				if tenantID != f.tenantID {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, f.data); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ConnectionCount is the number of open clients.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// QuantChanged queues a quant frame for the tenant's clients. A full
// queue drops the frame.
func (h *Hub) QuantChanged(ctx context.Context, c domain.QuantChange) {
	data, err := json.Marshal(Message{Type: "quant", QuantChange: c})
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to encode stock feed frame")
		return
	}
	select {
	case h.broadcast <- frame{tenantID: c.TenantID, data: data}:
	default:
		logger.Warn(ctx).Uint("variant_id", c.VariantID).Msg("Stock feed queue full, frame dropped")
	}
}

// Serve keeps conn registered until the client goes away.
func (h *Hub) Serve(conn *websocket.Conn, tenantID uint) {
	h.register <- client{conn: conn, tenantID: tenantID}
	defer func() { h.unregister <- conn }()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
