package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/internal/domain"
	"messenger/pkg/logger"
)

func seedMessage(t *testing.T, repo *fakeMessageRepo, from, to uuid.UUID, content string, at time.Time, state domain.DeliveryState) *domain.Message {
	t.Helper()
	message := &domain.Message{
		SenderID:      from,
		ReceiverID:    to,
		Content:       content,
		DeliveryState: state,
		CreatedAt:     at,
	}
	require.NoError(t, repo.Create(context.Background(), message))
	return message
}

func TestSummaryService_Conversations(t *testing.T) {
	alice := &domain.User{ID: uuid.New(), Username: "alice"}
	bob := &domain.User{ID: uuid.New(), Username: "bob"}
	carol := &domain.User{ID: uuid.New(), Username: "carol"}

	userRepo := newFakeUserRepo(alice, bob, carol)
	messageRepo := newFakeMessageRepo()
	now := time.Now().UTC()

	// С bob переписка старее, с carol свежее; от bob два непрочитанных
	seedMessage(t, messageRepo, bob.ID, alice.ID, "hey", now.Add(-2*time.Hour), domain.DeliverySent)
	seedMessage(t, messageRepo, bob.ID, alice.ID, "you there?", now.Add(-time.Hour), domain.DeliveryDelivered)
	seedMessage(t, messageRepo, alice.ID, carol.ID, "hi carol", now.Add(-time.Minute), domain.DeliverySent)

	svc := NewSummaryService(messageRepo, userRepo, logger.NewNop())

	summaries, err := svc.Conversations(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Свежие диалоги первыми
	assert.Equal(t, "carol", summaries[0].PartnerUsername)
	assert.Equal(t, "hi carol", summaries[0].LastMessageText)
	assert.Equal(t, int64(0), summaries[0].UnreadCount)

	assert.Equal(t, "bob", summaries[1].PartnerUsername)
	assert.Equal(t, "you there?", summaries[1].LastMessageText)
	assert.Equal(t, int64(2), summaries[1].UnreadCount)
}

func TestSummaryService_Conversations_TieBreakByUsername(t *testing.T) {
	alice := &domain.User{ID: uuid.New(), Username: "alice"}
	bob := &domain.User{ID: uuid.New(), Username: "bob"}
	carol := &domain.User{ID: uuid.New(), Username: "carol"}

	userRepo := newFakeUserRepo(alice, bob, carol)
	messageRepo := newFakeMessageRepo()
	at := time.Now().UTC()

	seedMessage(t, messageRepo, carol.ID, alice.ID, "from carol", at, domain.DeliverySent)
	seedMessage(t, messageRepo, bob.ID, alice.ID, "from bob", at, domain.DeliverySent)

	svc := NewSummaryService(messageRepo, userRepo, logger.NewNop())

	summaries, err := svc.Conversations(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "bob", summaries[0].PartnerUsername)
	assert.Equal(t, "carol", summaries[1].PartnerUsername)
}

func TestSummaryService_Conversations_Empty(t *testing.T) {
	alice := &domain.User{ID: uuid.New(), Username: "alice"}
	svc := NewSummaryService(newFakeMessageRepo(), newFakeUserRepo(alice), logger.NewNop())

	summaries, err := svc.Conversations(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestSummaryService_History_MarksIncomingRead(t *testing.T) {
	alice := &domain.User{ID: uuid.New(), Username: "alice"}
	bob := &domain.User{ID: uuid.New(), Username: "bob"}

	userRepo := newFakeUserRepo(alice, bob)
	messageRepo := newFakeMessageRepo()
	now := time.Now().UTC()

	incoming := seedMessage(t, messageRepo, bob.ID, alice.ID, "hi", now.Add(-time.Minute), domain.DeliveryDelivered)
	outgoing := seedMessage(t, messageRepo, alice.ID, bob.ID, "hello", now, domain.DeliverySent)

	svc := NewSummaryService(messageRepo, userRepo, logger.NewNop())

	history, err := svc.History(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Входящее помечено прочитанным и в ответе, и в хранилище
	assert.Equal(t, domain.DeliveryRead, history[0].DeliveryState)
	assert.Equal(t, domain.DeliveryRead, messageRepo.stored(incoming.ID).DeliveryState)

	// Исходящее сообщение запрашивающего не трогается: эффект односторонний
	assert.Equal(t, domain.DeliverySent, history[1].DeliveryState)
	assert.Equal(t, domain.DeliverySent, messageRepo.stored(outgoing.ID).DeliveryState)
}

func TestSummaryService_History_Idempotent(t *testing.T) {
	alice := &domain.User{ID: uuid.New(), Username: "alice"}
	bob := &domain.User{ID: uuid.New(), Username: "bob"}

	userRepo := newFakeUserRepo(alice, bob)
	messageRepo := newFakeMessageRepo()

	seedMessage(t, messageRepo, bob.ID, alice.ID, "hi", time.Now().UTC(), domain.DeliverySent)

	svc := NewSummaryService(messageRepo, userRepo, logger.NewNop())

	first, err := svc.History(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	second, err := svc.History(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	assert.Equal(t, first[0].DeliveryState, second[0].DeliveryState)
	assert.Equal(t, domain.DeliveryRead, second[0].DeliveryState)
}

func TestSummaryService_History_MarkReadFailure(t *testing.T) {
	alice := &domain.User{ID: uuid.New(), Username: "alice"}
	bob := &domain.User{ID: uuid.New(), Username: "bob"}

	userRepo := newFakeUserRepo(alice, bob)
	messageRepo := newFakeMessageRepo()
	messageRepo.markErr = errors.New("connection refused")

	seedMessage(t, messageRepo, bob.ID, alice.ID, "hi", time.Now().UTC(), domain.DeliverySent)

	svc := NewSummaryService(messageRepo, userRepo, logger.NewNop())

	_, err := svc.History(context.Background(), alice.ID, bob.ID)
	assert.Error(t, err)
}
