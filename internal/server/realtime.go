package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades GET /api/ws connections and attaches them to the
// feed hub. Clients receive every newPost event for as long as they stay
// connected.
func (s *Server) WebsocketHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return websocket.New(func(conn *websocket.Conn) {
			userID, ok := conn.Locals("userID").(uint)
			if !ok || s.hub == nil {
				_ = conn.Close()
				return
			}

			client, err := s.hub.Register(userID, conn)
			if err != nil {
				log.Printf("websocket register failed for user %d: %v", userID, err)
				_ = conn.Close()
				return
			}

			go client.WritePump()
			client.ReadPump()
		})(c)
	}
}
