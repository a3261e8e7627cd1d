package presence

import (
	"sync"

	"github.com/google/uuid"

	"messenger/pkg/logger"
)

// OnlineUser — элемент снимка списка онлайн-пользователей.
type OnlineUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Registry — единственный источник истины о том, кто сейчас онлайн.
// На пользователя допускается ровно одна живая сессия: повторная
// регистрация вытесняет предыдущую (last-writer-wins).
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	log      logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		log:      log,
	}
}

// Register атомарно сохраняет сессию и возвращает вытесненную, если для
// этого пользователя уже была зарегистрирована другая. Закрыть вытесненную
// сессию обязан вызывающий.
func (r *Registry) Register(s *Session) (evicted *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.sessions[s.UserID]; ok && prev != s {
		evicted = prev
	}
	r.sessions[s.UserID] = s

	r.log.Info("Session registered", "user_id", s.UserID, "username", s.Username, "online", len(r.sessions))
	return evicted
}

// Deregister удаляет запись, только если она все еще указывает на эту
// сессию. Отключение уже вытесненного соединения не должно снимать с
// регистрации более новое.
func (r *Registry) Deregister(userID uuid.UUID, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[userID]
	if !ok || current != s {
		return false
	}

	delete(r.sessions, userID)
	r.log.Info("Session deregistered", "user_id", userID, "online", len(r.sessions))
	return true
}

func (r *Registry) Lookup(userID uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[userID]
	return s, ok
}

// Online возвращает снимок онлайн-пользователей. Порядок не гарантируется.
func (r *Registry) Online() []OnlineUser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]OnlineUser, 0, len(r.sessions))
	for _, s := range r.sessions {
		users = append(users, OnlineUser{ID: s.UserID, Username: s.Username})
	}
	return users
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
