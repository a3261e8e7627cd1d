package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"messenger/internal/config"
	"messenger/internal/domain"
	"messenger/internal/repository"
	errs "messenger/pkg/errors"
	"messenger/pkg/logger"

	"github.com/google/uuid"
)

type ChatService interface {
	// Send находит получателя по имени, применяет политики и сохраняет
	// сообщение со статусом Sent. Сохранение происходит ДО любой попытки
	// доставки: после падения между записью и push сообщение остается
	// доступным через историю.
	Send(ctx context.Context, senderID uuid.UUID, toUsername, content string) (*domain.Message, *domain.User, error)
	// MarkDelivered фиксирует успешный push получателю.
	MarkDelivered(ctx context.Context, messageID int64) error
}

type chatService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	policy      config.ChatConfig
	log         logger.Logger
}

func NewChatService(messageRepo repository.MessageRepository, userRepo repository.UserRepository, policy config.ChatConfig, log logger.Logger) ChatService {
	return &chatService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		policy:      policy,
		log:         log,
	}
}

func (s *chatService) Send(ctx context.Context, senderID uuid.UUID, toUsername, content string) (*domain.Message, *domain.User, error) {
	receiver, err := s.userRepo.GetByUsername(ctx, toUsername)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return nil, nil, errs.ErrRecipientNotFound
		}
		return nil, nil, err
	}

	if !s.policy.AllowSelfMessages && receiver.ID == senderID {
		return nil, nil, errs.ErrSelfMessage
	}
	if !s.policy.AllowEmptyMessages && strings.TrimSpace(content) == "" {
		return nil, nil, errs.ErrEmptyMessage
	}

	message := &domain.Message{
		SenderID:      senderID,
		ReceiverID:    receiver.ID,
		Content:       content,
		DeliveryState: domain.DeliverySent,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		s.log.Error("Failed to persist message", "error", err, "sender_id", senderID)
		return nil, nil, fmt.Errorf("failed to save message: %w", err)
	}

	return message, receiver, nil
}

func (s *chatService) MarkDelivered(ctx context.Context, messageID int64) error {
	return s.messageRepo.AdvanceState(ctx, messageID, domain.DeliveryDelivered)
}
