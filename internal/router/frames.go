package router

import (
	"time"

	"github.com/google/uuid"
)

// Входящие действия протокола.
const (
	actionSendMessage    = "send_message"
	actionGetOnlineUsers = "get_online_users"
)

// Типы исходящих кадров.
const (
	frameNewMessage  = "new_message"
	frameMessageSent = "message_sent"
	frameOnlineUsers = "online_users"
	frameError       = "error"
)

type inboundFrame struct {
	Action  string `json:"action"`
	To      string `json:"to,omitempty"`
	Message string `json:"message,omitempty"`
}

type newMessageFrame struct {
	Type      string    `json:"type"`
	From      string    `json:"from"`
	FromID    uuid.UUID `json:"from_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	MessageID int64     `json:"message_id"`
}

type messageSentFrame struct {
	Type      string    `json:"type"`
	To        string    `json:"to"`
	MessageID int64     `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

type onlineUsersFrame struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
