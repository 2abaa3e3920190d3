package handlers

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/realtime"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/utils"
)

type WSHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
}

func NewWSHandler(hub *realtime.Hub, jwtSecret string) *WSHandler {
	return &WSHandler{Hub: hub, JWTSecret: jwtSecret}
}

// Notifications keeps a websocket open and relays notification pushes.
// Browsers cannot set headers on websocket upgrades, so the JWT travels as a
// query parameter.
func (h *WSHandler) Notifications(c *websocket.Conn) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = c.Cookies("pf_token")
	}
	if tokenStr == "" {
		log.Println("WebSocket: missing token")
		c.Close()
		return
	}

	claims, err := utils.ParseJWT(h.JWTSecret, tokenStr)
	if err != nil {
		log.Println("WebSocket: invalid token:", err)
		c.Close()
		return
	}
	userUUID, err := uuid.Parse(claims.UserID)
	if err != nil {
		log.Println("WebSocket: invalid user id in token:", err)
		c.Close()
		return
	}

	log.Printf("WebSocket: user %s connected", userUUID)

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   &realtime.WebSocketConn{Conn: c},
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("WebSocket: user %s disconnected", userUUID)
	}()

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	// Read loop keeps the connection alive; clients only ever send pings.
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}
		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
