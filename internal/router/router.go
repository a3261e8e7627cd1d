package router

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"messenger/internal/config"
	"messenger/internal/domain"
	"messenger/internal/presence"
	"messenger/internal/service"
	"messenger/pkg/logger"
)

// Router интерпретирует кадры живого соединения и решает, что с ними
// делать: сохранить, доставить, отклонить. Каждое соединение проходит
// состояния connecting -> authenticated -> active -> closed; до active
// доходят только соединения с валидным токеном.
type Router struct {
	auth     service.AuthService
	chat     service.ChatService
	registry *presence.Registry
	cfg      config.ChatConfig
	log      logger.Logger
}

func New(auth service.AuthService, chat service.ChatService, registry *presence.Registry, cfg config.ChatConfig, log logger.Logger) *Router {
	return &Router{
		auth:     auth,
		chat:     chat,
		registry: registry,
		cfg:      cfg,
		log:      log,
	}
}

// Serve обслуживает соединение от аутентификации до отключения.
// Возврат из Serve гарантирует снятие с регистрации и закрытие сессии.
func (r *Router) Serve(ctx context.Context, ws *websocket.Conn, token string) {
	user, err := r.auth.ValidateToken(ctx, token)
	if err != nil {
		// Различимая причина закрытия: клиент должен понять, что
		// проблема в аутентификации, а не в протоколе.
		deadline := time.Now().Add(r.cfg.WriteTimeout)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user not authenticated"), deadline)
		_ = ws.Close()
		return
	}

	sess := presence.NewSession(user.ID, user.Username, ws, r.cfg.SendQueueSize, r.cfg.WriteTimeout, r.log)
	sess.Run()

	if evicted := r.registry.Register(sess); evicted != nil {
		// Две живые сессии под одним пользователем недопустимы:
		// вытесненное соединение закрывается, а не остается висеть.
		evicted.Close(websocket.ClosePolicyViolation, "replaced by newer connection")
	}

	defer func() {
		// Отключение вытесненной сессии не трогает более новую запись.
		r.registry.Deregister(user.ID, sess)
		sess.Close(websocket.CloseNormalClosure, "")
		r.log.Info("User disconnected", "username", user.Username, "online", r.registry.Count())
	}()

	r.log.Info("User connected", "username", user.Username, "user_id", user.ID, "online", r.registry.Count())

	// Кадры одного соединения обрабатываются строго последовательно:
	// порядок сообщений отправителя в хранилище совпадает с порядком
	// отправки без глобальных блокировок.
	for {
		data, err := sess.ReadFrame()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			r.log.Warn("Malformed frame, closing connection", "username", user.Username, "error", err)
			sess.Close(websocket.CloseProtocolError, "malformed frame")
			return
		}

		switch frame.Action {
		case actionSendMessage:
			r.handleSend(ctx, sess, &frame)
		case actionGetOnlineUsers:
			r.handleOnlineUsers(sess)
		default:
			// Неизвестные действия молча игнорируются: совместимость
			// с будущими типами кадров.
		}
	}
}

func (r *Router) handleSend(ctx context.Context, sess *presence.Session, frame *inboundFrame) {
	message, receiver, err := r.chat.Send(ctx, sess.UserID, frame.To, frame.Message)
	if err != nil {
		// Ошибка отправки (включая отказ персистентности) всегда
		// сообщается отправителю; соединение остается активным.
		r.replyError(sess, err)
		return
	}

	// Получатель онлайн — пробуем доставить сразу. Неудачный push не
	// ошибка для отправителя: сообщение уже сохранено и будет получено
	// из истории.
	if peer, ok := r.registry.Lookup(receiver.ID); ok {
		r.push(ctx, sess, peer, message)
	}

	// Подтверждение отправителю уходит всегда, независимо от того,
	// онлайн ли получатель: send не гарантирует доставку.
	r.reply(sess, messageSentFrame{
		Type:      frameMessageSent,
		To:        receiver.Username,
		MessageID: message.ID,
		Timestamp: message.CreatedAt,
	})
}

func (r *Router) push(ctx context.Context, sess *presence.Session, peer *presence.Session, message *domain.Message) {
	data, err := json.Marshal(newMessageFrame{
		Type:      frameNewMessage,
		From:      sess.Username,
		FromID:    sess.UserID,
		Message:   message.Content,
		Timestamp: message.CreatedAt,
		MessageID: message.ID,
	})
	if err != nil {
		r.log.Error("Failed to marshal push frame", "error", err)
		return
	}

	if err := peer.TrySend(data); err != nil {
		r.log.Warn("Failed to push message", "error", err, "receiver", peer.Username, "message_id", message.ID)
		return
	}

	// Статус Delivered фиксируется только после успешного push.
	if err := r.chat.MarkDelivered(ctx, message.ID); err != nil {
		r.log.Warn("Failed to mark message delivered", "error", err, "message_id", message.ID)
		return
	}
	message.DeliveryState = domain.DeliveryDelivered
}

func (r *Router) handleOnlineUsers(sess *presence.Session) {
	online := r.registry.Online()
	users := make([]string, 0, len(online))
	for _, u := range online {
		users = append(users, u.Username)
	}

	r.reply(sess, onlineUsersFrame{
		Type:  frameOnlineUsers,
		Users: users,
		Count: len(users),
	})
}

func (r *Router) reply(sess *presence.Session, frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		r.log.Error("Failed to marshal frame", "error", err)
		return
	}
	if err := sess.TrySend(data); err != nil {
		r.log.Warn("Failed to reply", "error", err, "username", sess.Username)
	}
}

func (r *Router) replyError(sess *presence.Session, err error) {
	r.reply(sess, errorFrame{Type: frameError, Message: err.Error()})
}
