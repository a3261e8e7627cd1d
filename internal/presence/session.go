package presence

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	errs "messenger/pkg/errors"
	"messenger/pkg/logger"
)

// Session — одно живое соединение, привязанное к авторизованному
// пользователю. Исходящие кадры проходят через ограниченную очередь send,
// которую разбирает единственная writer-горутина (writePump): websocket не
// допускает конкурентной записи.
type Session struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Username string

	conn         *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	log          logger.Logger
}

func NewSession(userID uuid.UUID, username string, conn *websocket.Conn, queueSize int, writeTimeout time.Duration, log logger.Logger) *Session {
	return &Session{
		ID:           uuid.New(),
		UserID:       userID,
		Username:     username,
		conn:         conn,
		send:         make(chan []byte, queueSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// Run запускает writer-горутину. Вызывается один раз после регистрации.
func (s *Session) Run() {
	go s.writePump()
}

// TrySend ставит кадр в очередь отправки не блокируясь. Переполненная
// очередь или закрытая сессия возвращают ошибку: медленный получатель не
// должен останавливать цикл отправителя.
func (s *Session) TrySend(data []byte) error {
	select {
	case <-s.done:
		return errs.ErrSessionClosed
	default:
	}

	select {
	case s.send <- data:
		return nil
	default:
		return errs.ErrSendBufferFull
	}
}

// ReadFrame блокируется до следующего входящего кадра или разрыва соединения.
func (s *Session) ReadFrame() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

// Close закрывает сессию ровно один раз: отправляет close-кадр с указанной
// причиной и рвет соединение. Закрытие снимает блокировку ReadFrame.
func (s *Session) Close(code int, reason string) {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn == nil {
			return
		}
		deadline := time.Now().Add(s.writeTimeout)
		if err := s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil {
			s.log.Debug("Failed to write close frame", "error", err, "user_id", s.UserID)
		}
		if err := s.conn.Close(); err != nil {
			s.log.Debug("Failed to close connection", "error", err, "user_id", s.UserID)
		}
	})
}

// Closed сообщает, была ли сессия закрыта.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) writePump() {
	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Warn("Failed to write frame", "error", err, "user_id", s.UserID)
				s.Close(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-s.done:
			return
		}
	}
}
