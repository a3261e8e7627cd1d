package service

import (
	"context"
	"errors"
	"sort"

	"messenger/internal/domain"
	"messenger/internal/repository"
	errs "messenger/pkg/errors"
	"messenger/pkg/logger"

	"github.com/google/uuid"
)

// SummaryService строит производные представления по истории сообщений:
// список диалогов и переписку с конкретным собеседником.
type SummaryService interface {
	Conversations(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error)
	// History возвращает переписку в обе стороны по возрастанию времени.
	// Побочный эффект: все непрочитанные сообщения, адресованные
	// запрашивающему, помечаются прочитанными — отдельной операции
	// "отметить прочитанным" в протоколе нет. Эффект односторонний:
	// запрос истории отправителем чужие статусы не меняет.
	History(ctx context.Context, requesterID, partnerID uuid.UUID) ([]*domain.Message, error)
}

type summaryService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	log         logger.Logger
}

func NewSummaryService(messageRepo repository.MessageRepository, userRepo repository.UserRepository, log logger.Logger) SummaryService {
	return &summaryService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		log:         log,
	}
}

func (s *summaryService) Conversations(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	partnerIDs, err := s.messageRepo.PartnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.ConversationSummary, 0, len(partnerIDs))
	for _, partnerID := range partnerIDs {
		partner, err := s.userRepo.GetByID(ctx, partnerID)
		if err != nil {
			if errors.Is(err, errs.ErrUserNotFound) {
				continue
			}
			return nil, err
		}

		last, err := s.messageRepo.LastMessage(ctx, userID, partnerID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				continue
			}
			return nil, err
		}

		unread, err := s.messageRepo.CountUnread(ctx, userID, partnerID)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, &domain.ConversationSummary{
			PartnerID:       partner.ID,
			PartnerUsername: partner.Username,
			LastMessageText: last.Content,
			LastMessageTime: last.CreatedAt,
			UnreadCount:     unread,
		})
	}

	// Детерминированный порядок: свежие диалоги первыми, при равном
	// времени — по имени собеседника.
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].LastMessageTime.Equal(summaries[j].LastMessageTime) {
			return summaries[i].LastMessageTime.After(summaries[j].LastMessageTime)
		}
		return summaries[i].PartnerUsername < summaries[j].PartnerUsername
	})

	return summaries, nil
}

func (s *summaryService) History(ctx context.Context, requesterID, partnerID uuid.UUID) ([]*domain.Message, error) {
	messages, err := s.messageRepo.History(ctx, requesterID, partnerID)
	if err != nil {
		return nil, err
	}

	// Ошибка фиксации прочтения не проглатывается: история без
	// обновленных статусов вернулась бы рассинхронизированной.
	if _, err := s.messageRepo.MarkConversationRead(ctx, requesterID, partnerID); err != nil {
		return nil, err
	}

	for _, m := range messages {
		if m.ReceiverID == requesterID && m.DeliveryState < domain.DeliveryRead {
			m.DeliveryState = domain.DeliveryRead
		}
	}

	return messages, nil
}
