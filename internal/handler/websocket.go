package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"messenger/internal/router"
	"messenger/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

type WebSocketHandler struct {
	router *router.Router
	log    logger.Logger
}

func NewWebSocketHandler(rtr *router.Router, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		router: rtr,
		log:    log,
	}
}

// HandleChat апгрейдит соединение и передает его маршрутизатору. Токен
// принимается query-параметром: браузерный WebSocket не умеет заголовки.
func (h *WebSocketHandler) HandleChat(c *gin.Context) {
	token := c.Query("token")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	h.router.Serve(c.Request.Context(), conn, token)
}
