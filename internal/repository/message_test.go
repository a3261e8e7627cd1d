package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/internal/domain"
	errs "messenger/pkg/errors"
	"messenger/pkg/logger"
)

func TestMessageRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMessageRepository(mock, logger.NewNop())

	now := time.Now().UTC()
	message := &domain.Message{
		SenderID:      uuid.New(),
		ReceiverID:    uuid.New(),
		Content:       "hello",
		DeliveryState: domain.DeliverySent,
		CreatedAt:     now,
	}

	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(message.SenderID, message.ReceiverID, message.Content, message.DeliveryState, now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	require.NoError(t, repo.Create(context.Background(), message))
	assert.Equal(t, int64(42), message.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_AdvanceState(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMessageRepository(mock, logger.NewNop())

	mock.ExpectExec(`UPDATE messages`).
		WithArgs(int64(42), domain.DeliveryDelivered).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.AdvanceState(context.Background(), 42, domain.DeliveryDelivered))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_AdvanceState_AlreadyAhead(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMessageRepository(mock, logger.NewNop())

	// Статус уже Read: guard delivery_state < $2 не пропускает понижение,
	// ноль обновленных строк не считается ошибкой
	mock.ExpectExec(`UPDATE messages`).
		WithArgs(int64(42), domain.DeliveryDelivered).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.AdvanceState(context.Background(), 42, domain.DeliveryDelivered))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_PartnerIDs(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMessageRepository(mock, logger.NewNop())

	userID := uuid.New()
	partner1 := uuid.New()
	partner2 := uuid.New()

	mock.ExpectQuery(`SELECT receiver_id FROM messages`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"receiver_id"}).AddRow(partner1).AddRow(partner2))

	partners, err := repo.PartnerIDs(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{partner1, partner2}, partners)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_LastMessage_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMessageRepository(mock, logger.NewNop())

	userID := uuid.New()
	partnerID := uuid.New()

	mock.ExpectQuery(`SELECT id, sender_id, receiver_id, content, delivery_state, created_at`).
		WithArgs(userID, partnerID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.LastMessage(context.Background(), userID, partnerID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_CountUnread(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMessageRepository(mock, logger.NewNop())

	receiverID := uuid.New()
	senderID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(receiverID, senderID, domain.DeliveryRead).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.CountUnread(context.Background(), receiverID, senderID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_History(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMessageRepository(mock, logger.NewNop())

	userID := uuid.New()
	partnerID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, sender_id, receiver_id, content, delivery_state, created_at`).
		WithArgs(userID, partnerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "sender_id", "receiver_id", "content", "delivery_state", "created_at"}).
			AddRow(int64(1), userID, partnerID, "hi", domain.DeliveryRead, now.Add(-time.Minute)).
			AddRow(int64(2), partnerID, userID, "hello", domain.DeliverySent, now))

	messages, err := repo.History(context.Background(), userID, partnerID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, int64(1), messages[0].ID)
	assert.Equal(t, domain.DeliverySent, messages[1].DeliveryState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_MarkConversationRead(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMessageRepository(mock, logger.NewNop())

	receiverID := uuid.New()
	senderID := uuid.New()

	mock.ExpectExec(`UPDATE messages`).
		WithArgs(receiverID, senderID, domain.DeliveryRead).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	affected, err := repo.MarkConversationRead(context.Background(), receiverID, senderID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
