package handler

import (
	"net/http"

	"messenger/internal/service"
	errs "messenger/pkg/errors"
	"messenger/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	summaryService service.SummaryService
	log            logger.Logger
}

func NewChatHandler(summaryService service.SummaryService, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		summaryService: summaryService,
		log:            log,
	}
}

// Conversations возвращает список диалогов пользователя: собеседник,
// последнее сообщение, число непрочитанных.
func (h *ChatHandler) Conversations(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	chats, err := h.summaryService.Conversations(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		h.log.Error("Failed to list conversations", "error", err)
		c.JSON(errs.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// History возвращает переписку с собеседником. Получение истории помечает
// адресованные запрашивающему сообщения прочитанными.
func (h *ChatHandler) History(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	partnerID, err := uuid.Parse(c.Param("partnerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid partner ID"})
		return
	}

	messages, err := h.summaryService.History(c.Request.Context(), userID.(uuid.UUID), partnerID)
	if err != nil {
		h.log.Error("Failed to get history", "error", err)
		c.JSON(errs.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
