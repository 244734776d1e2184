package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/yourusername/verification-mailer/internal/pkg/errors"
	"github.com/yourusername/verification-mailer/internal/pubsub"
)

// PushHandler принимает push-доставки Pub/Sub
type PushHandler struct {
	handle pubsub.MessageHandler
}

// NewPushHandler создает новый обработчик push-доставок
func NewPushHandler(handle pubsub.MessageHandler) *PushHandler {
	return &PushHandler{handle: handle}
}

// HandlePush подтверждает доставку ответом 204. Ответ 400 или 500 заставляет
// Pub/Sub повторить доставку.
func (h *PushHandler) HandlePush(c *gin.Context) {
	var envelope pubsub.PushEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		log.Printf("[PushHandler] invalid push envelope: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid push envelope"})
		return
	}

	msg := envelope.Message
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}

	if err := h.handle(c.Request.Context(), &msg); err != nil {
		if errors.Is(err, apperrors.ErrMalformedEvent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed signup event"})
			return
		}
		log.Printf("[PushHandler] message %s failed: %v", msg.MessageID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}
