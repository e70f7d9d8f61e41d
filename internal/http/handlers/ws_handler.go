package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/ws"
)

// WSHandler подписывает клиента на события списка отзывов.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub, checkOrigin func(r *http.Request) bool) *WSHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WSHandler{
		hub:      hub,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// Handle обслуживает GET /api/feedbacks/ws
func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		logger.WithComponent("ws").WithError(err).Debug("upgrade не удался")
		return
	}

	client := ws.NewClient(conn, h.hub)
	h.hub.Register(client)
	client.Run(c.Request.Context())
}
