package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger проверяет доступность зависимости
type Pinger func(ctx context.Context) error

// HealthHandler отвечает на проверки живости
type HealthHandler struct {
	ping    Pinger
	timeout time.Duration
}

// NewHealthHandler создает обработчик. ping может быть nil.
func NewHealthHandler(ping Pinger, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{ping: ping, timeout: timeout}
}

func (h *HealthHandler) Health(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			log.Printf("[HealthHandler] database ping failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
