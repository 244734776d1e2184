package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/verification-mailer/pkg/auth"
)

// PushTokenParser проверяет bearer-токен push-доставки
type PushTokenParser interface {
	ParseToken(tokenString string) (*auth.PushClaims, error)
}

// PushAuthMiddleware проверяет Authorization заголовок push-доставок
type PushAuthMiddleware struct {
	tokens PushTokenParser
}

// NewPushAuthMiddleware создает новый middleware. С nil парсером проверка отключена.
func NewPushAuthMiddleware(tokens PushTokenParser) *PushAuthMiddleware {
	return &PushAuthMiddleware{tokens: tokens}
}

// RequirePushToken отклоняет запрос с 401, если токен отсутствует или недействителен
func (m *PushAuthMiddleware) RequirePushToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.tokens == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "error_type": "token_missing"})
			return
		}

		// Проверяем формат заголовка Bearer {token}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
			return
		}

		claims, err := m.tokens.ParseToken(parts[1])
		if err != nil {
			errorType := "token_invalid"
			if errors.Is(err, auth.ErrExpiredToken) {
				errorType = "token_expired"
			}
			log.Printf("[PushAuth] rejected push from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": errorType})
			return
		}

		c.Set("push_subject", claims.Subject)
		c.Next()
	}
}
