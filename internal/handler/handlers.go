package handler

import (
	"messenger/internal/router"
	"messenger/internal/service"
	"messenger/pkg/logger"
)

type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	User      *UserHandler
	Chat      *ChatHandler
	WebSocket *WebSocketHandler
}

func NewHandlers(services *service.Services, rtr *router.Router, log logger.Logger) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(),
		Auth:      NewAuthHandler(services.Auth, log),
		User:      NewUserHandler(services.User, log),
		Chat:      NewChatHandler(services.Summary, log),
		WebSocket: NewWebSocketHandler(rtr, log),
	}
}
