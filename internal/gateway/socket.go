package gateway

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const localSocketTenant = "socket_tenant"

// SocketFunc serves one upgraded connection for a tenant.
type SocketFunc func(conn *websocket.Conn, tenantID uint)

// Socket registers a websocket route behind the same gate as ep. Browsers
// cannot set headers on the upgrade, so the session token may also be
// passed as the token query parameter.
func (r *Router) Socket(path string, ep Endpoint, handle SocketFunc) {
	r.group.Use(path, func(fc *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(fc) {
			return fiber.ErrUpgradeRequired
		}
		if token := fc.Query("token"); token != "" && fc.Get("X-Session-Id") == "" {
			fc.Request().Header.Set("X-Session-Id", token)
		}
		call, err := r.prepare(fc, ep)
		if err != nil {
			return writeError(fc, err)
		}
		fc.Locals(localSocketTenant, call.TenantID())
		return fc.Next()
	})
	r.group.Get(path, websocket.New(func(c *websocket.Conn) {
		tenantID, _ := c.Locals(localSocketTenant).(uint)
		handle(c, tenantID)
	}))
}
