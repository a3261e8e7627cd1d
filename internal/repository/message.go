package repository

import (
	"context"
	"errors"

	"messenger/internal/domain"
	errs "messenger/pkg/errors"
	"messenger/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	// AdvanceState переводит статус доставки вперед. Понижение статуса
	// невозможно: запрос срабатывает только при delivery_state < state.
	AdvanceState(ctx context.Context, messageID int64, state domain.DeliveryState) error
	PartnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	LastMessage(ctx context.Context, userID, partnerID uuid.UUID) (*domain.Message, error)
	CountUnread(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error)
	History(ctx context.Context, userID, partnerID uuid.UUID) ([]*domain.Message, error)
	// MarkConversationRead помечает прочитанными все сообщения от senderID
	// к receiverID. Возвращает число обновленных строк.
	MarkConversationRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error)
}

type messageRepository struct {
	db  PgxPool
	log logger.Logger
}

func NewMessageRepository(db PgxPool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, content, delivery_state, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		message.SenderID, message.ReceiverID, message.Content,
		message.DeliveryState, message.CreatedAt,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create message", "error", err)
		return err
	}

	return nil
}

func (r *messageRepository) AdvanceState(ctx context.Context, messageID int64, state domain.DeliveryState) error {
	query := `
		UPDATE messages
		SET delivery_state = $2
		WHERE id = $1 AND delivery_state < $2
	`

	// Нулевое число обновленных строк не ошибка: статус уже был выше.
	_, err := r.db.Exec(ctx, query, messageID, state)
	if err != nil {
		r.log.Error("Failed to advance delivery state", "error", err, "message_id", messageID)
		return err
	}

	return nil
}

func (r *messageRepository) PartnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT receiver_id FROM messages WHERE sender_id = $1
		UNION
		SELECT sender_id FROM messages WHERE receiver_id = $1
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to get chat partners", "error", err)
		return nil, err
	}
	defer rows.Close()

	var partners []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			r.log.Error("Failed to scan partner ID", "error", err)
			return nil, err
		}
		partners = append(partners, id)
	}

	return partners, rows.Err()
}

func (r *messageRepository) LastMessage(ctx context.Context, userID, partnerID uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, delivery_state, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	message := &domain.Message{}
	err := r.db.QueryRow(ctx, query, userID, partnerID).Scan(
		&message.ID, &message.SenderID, &message.ReceiverID,
		&message.Content, &message.DeliveryState, &message.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		r.log.Error("Failed to get last message", "error", err)
		return nil, err
	}

	return message, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE receiver_id = $1 AND sender_id = $2 AND delivery_state < $3
	`

	var count int64
	err := r.db.QueryRow(ctx, query, receiverID, senderID, domain.DeliveryRead).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count unread messages", "error", err)
		return 0, err
	}

	return count, nil
}

func (r *messageRepository) History(ctx context.Context, userID, partnerID uuid.UUID) ([]*domain.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, delivery_state, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, userID, partnerID)
	if err != nil {
		r.log.Error("Failed to get message history", "error", err)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message := &domain.Message{}
		if err := rows.Scan(
			&message.ID, &message.SenderID, &message.ReceiverID,
			&message.Content, &message.DeliveryState, &message.CreatedAt,
		); err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	query := `
		UPDATE messages
		SET delivery_state = $3
		WHERE receiver_id = $1 AND sender_id = $2 AND delivery_state < $3
	`

	tag, err := r.db.Exec(ctx, query, receiverID, senderID, domain.DeliveryRead)
	if err != nil {
		r.log.Error("Failed to mark conversation read", "error", err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}
