package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"messenger/internal/domain"
	errs "messenger/pkg/errors"
)

// fakeUserRepo — in-memory реализация UserRepository для тестов сервисов.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return errs.ErrUserAlreadyExists
		}
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, errs.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (r *fakeUserRepo) CreateSession(_ context.Context, _ *domain.UserSession) error { return nil }

func (r *fakeUserRepo) GetSessionByTokenHash(_ context.Context, _ string) (*domain.UserSession, error) {
	return nil, errs.ErrNotFound
}

func (r *fakeUserRepo) RevokeSession(_ context.Context, _ uuid.UUID, _ string) error { return nil }

// fakeMessageRepo — in-memory реализация MessageRepository. Хранит
// сообщения в порядке вставки, id выдает монотонно.
type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  []*domain.Message
	nextID    int64
	createErr error
	markErr   error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1}
}

func (r *fakeMessageRepo) Create(_ context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	message.ID = r.nextID
	r.nextID++
	stored := *message
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *fakeMessageRepo) AdvanceState(_ context.Context, messageID int64, state domain.DeliveryState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == messageID && m.DeliveryState < state {
			m.DeliveryState = state
		}
	}
	return nil
}

func (r *fakeMessageRepo) PartnerIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var partners []uuid.UUID
	for _, m := range r.messages {
		var partner uuid.UUID
		switch {
		case m.SenderID == userID:
			partner = m.ReceiverID
		case m.ReceiverID == userID:
			partner = m.SenderID
		default:
			continue
		}
		if !seen[partner] {
			seen[partner] = true
			partners = append(partners, partner)
		}
	}
	return partners, nil
}

func (r *fakeMessageRepo) LastMessage(_ context.Context, userID, partnerID uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *domain.Message
	for _, m := range r.messages {
		if r.between(m, userID, partnerID) {
			last = m
		}
	}
	if last == nil {
		return nil, errs.ErrNotFound
	}
	copied := *last
	return &copied, nil
}

func (r *fakeMessageRepo) CountUnread(_ context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, m := range r.messages {
		if m.ReceiverID == receiverID && m.SenderID == senderID && m.DeliveryState < domain.DeliveryRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) History(_ context.Context, userID, partnerID uuid.UUID) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var history []*domain.Message
	for _, m := range r.messages {
		if r.between(m, userID, partnerID) {
			copied := *m
			history = append(history, &copied)
		}
	}
	return history, nil
}

func (r *fakeMessageRepo) MarkConversationRead(_ context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return 0, r.markErr
	}
	var affected int64
	for _, m := range r.messages {
		if m.ReceiverID == receiverID && m.SenderID == senderID && m.DeliveryState < domain.DeliveryRead {
			m.DeliveryState = domain.DeliveryRead
			affected++
		}
	}
	return affected, nil
}

func (r *fakeMessageRepo) between(m *domain.Message, userID, partnerID uuid.UUID) bool {
	return (m.SenderID == userID && m.ReceiverID == partnerID) ||
		(m.SenderID == partnerID && m.ReceiverID == userID)
}

func (r *fakeMessageRepo) stored(messageID int64) *domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == messageID {
			return m
		}
	}
	return nil
}
