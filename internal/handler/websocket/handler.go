package websocket

import (
	"net/http"

	"collaborative-coderoom/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketHandler upgrades HTTP requests to the persistent event channel.
// A fresh connection is unjoined; the hub takes over once the client sends
// its join event.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	log      *logrus.Logger
}

// NewWebSocketHandler creates the upgrade handler.
func NewWebSocketHandler(h *hub.Hub, log *logrus.Logger) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The room protocol is unauthenticated; origin checks would
			// not add real protection here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		hub: h,
		log: log,
	}
}

// HandleConnection handles GET /ws.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.WithError(err).Error("Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn)
	h.log.WithField("conn_id", client.ID()).Info("Connection upgraded to WebSocket")
	client.Run()
}
