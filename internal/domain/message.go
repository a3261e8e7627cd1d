package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryState — статус доставки сообщения. Значения упорядочены и могут
// только расти: Sent -> Delivered -> Read.
type DeliveryState int16

const (
	DeliverySent DeliveryState = iota
	DeliveryDelivered
	DeliveryRead
)

func (s DeliveryState) String() string {
	switch s {
	case DeliverySent:
		return "sent"
	case DeliveryDelivered:
		return "delivered"
	case DeliveryRead:
		return "read"
	default:
		return "unknown"
	}
}

// Message неизменяемо после создания, кроме поля DeliveryState.
type Message struct {
	ID            int64         `json:"id"`
	SenderID      uuid.UUID     `json:"sender_id"`
	ReceiverID    uuid.UUID     `json:"receiver_id"`
	Content       string        `json:"content"`
	CreatedAt     time.Time     `json:"created_at"`
	DeliveryState DeliveryState `json:"delivery_state"`
}

// ConversationSummary — производное представление диалога для списка чатов.
// Диалог не хранится как отдельная сущность, а вычисляется по сообщениям.
type ConversationSummary struct {
	PartnerID       uuid.UUID `json:"partner_id"`
	PartnerUsername string    `json:"partner_username"`
	LastMessageText string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int64     `json:"unread_count"`
}
