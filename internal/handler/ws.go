package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/taskhub/kanban-api/internal/ws"
)

// upgrader performs the HTTP to WebSocket upgrade. Origin checking is
// left to the CORS layer in front; the endpoint itself only requires a
// valid JWT.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler upgrades authenticated requests to notification streams.
type WSHandler struct {
	Hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{Hub: hub}
}

// Serve handles GET /v1/ws. The route sits behind the JWT middleware,
// so the user is already identified by the time the upgrade happens.
func (h *WSHandler) Serve(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		return nil
	}
	client := &ws.Client{
		Hub:    h.Hub,
		Conn:   conn,
		Send:   make(chan []byte, 64),
		UserID: uid,
	}
	h.Hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
	return nil
}
