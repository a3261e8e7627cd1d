package service

import (
	"messenger/internal/config"
	"messenger/internal/repository"
	"messenger/pkg/logger"
)

type Services struct {
	Auth      AuthService
	User      UserService
	Chat      ChatService
	Summary   SummaryService
	RateLimit RateLimitService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		Auth:      NewAuthService(repos.User, cfg.JWT, log),
		User:      NewUserService(repos.User, log),
		Chat:      NewChatService(repos.Message, repos.User, cfg.Chat, log),
		Summary:   NewSummaryService(repos.Message, repos.User, log),
		RateLimit: NewRateLimitService(repos.RateLimit, log),
	}
}
