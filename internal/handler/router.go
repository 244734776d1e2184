package handler

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/verification-mailer/internal/middleware"
)

// RouterConfig описывает маршруты HTTP сервера
type RouterConfig struct {
	PushPath       string
	AllowedOrigins []string
	TrustedProxies []string
}

// NewRouter собирает gin.Engine с push endpoint'ом и health-проверкой
func NewRouter(cfg RouterConfig, push *PushHandler, health *HealthHandler, pushAuth *middleware.PushAuthMiddleware) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	pushPath := cfg.PushPath
	if pushPath == "" {
		pushPath = "/pubsub/push"
	}
	if pushAuth == nil {
		pushAuth = middleware.NewPushAuthMiddleware(nil)
	}

	router.POST(pushPath, pushAuth.RequirePushToken(), push.HandlePush)
	router.GET("/healthz", health.Health)

	return router
}
