package repository

import (
	"github.com/redis/go-redis/v9"

	"messenger/pkg/logger"
)

type Repositories struct {
	User      UserRepository
	Message   MessageRepository
	RateLimit RateLimitRepository
}

func NewRepositories(db PgxPool, redis *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db, log),
		Message:   NewMessageRepository(db, log),
		RateLimit: NewRateLimitRepository(redis, log),
	}
}
