package server

import (
	"context"

	"glimpse/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

var cardWSLogger = observability.NewWSLogger("card hub")

// WebsocketHandler handles GET /api/ws/cards. Each connection is scoped to the
// authenticated user and receives that user's cards as the projector creates
// them.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()
		userID, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			cardWSLogger.LogError(ctx, userID, err, "register")
			_ = conn.Close()
			return
		}
		cardWSLogger.LogConnect(ctx, userID)

		go client.WritePump()
		client.ReadPump()

		cardWSLogger.LogDisconnect(ctx, userID, "read pump closed")
	})
}
