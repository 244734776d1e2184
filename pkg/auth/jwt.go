package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken возвращается для токена с неверной подписью, форматом или аудиторией.
	ErrInvalidToken = errors.New("invalid push token")
	// ErrExpiredToken возвращается для токена с истекшим сроком действия.
	ErrExpiredToken = errors.New("push token is expired")
)

// PushClaims содержит поля токена, которым подписывается push-доставка
type PushClaims struct {
	Subscription string `json:"subscription,omitempty"`
	jwt.RegisteredClaims
}

// PushTokenService выпускает и проверяет HS256 токены push-доставок.
type PushTokenService struct {
	secret   []byte
	audience string
	now      func() time.Time
}

// NewPushTokenService создает сервис. Пустой секрет недопустим.
func NewPushTokenService(secret, audience string) (*PushTokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("push auth secret is required")
	}
	return &PushTokenService{
		secret:   []byte(secret),
		audience: audience,
		now:      time.Now,
	}, nil
}

// GenerateToken подписывает токен для издателя subject. Используется cmd/publish и тестами.
func (s *PushTokenService) GenerateToken(subject, subscription string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	now := s.now()
	claims := &PushClaims{
		Subscription: subscription,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign push token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись, срок действия и аудиторию токена.
func (s *PushTokenService) ParseToken(tokenString string) (*PushClaims, error) {
	claims := &PushClaims{}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc)
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				log.Printf("[JWT] push token is malformed")
				return nil, fmt.Errorf("%w: malformed", ErrInvalidToken)
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				log.Printf("[JWT] push token expired (subject=%s)", claims.Subject)
				return nil, ErrExpiredToken
			case ve.Errors&jwt.ValidationErrorNotValidYet != 0:
				return nil, fmt.Errorf("%w: not valid yet", ErrInvalidToken)
			case ve.Errors&jwt.ValidationErrorSignatureInvalid != 0:
				log.Printf("[JWT] push token signature is invalid (subject=%s)", claims.Subject)
				return nil, fmt.Errorf("%w: signature is invalid", ErrInvalidToken)
			}
		}
		log.Printf("[JWT] failed to parse push token: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if s.audience != "" && !claims.VerifyAudience(s.audience, true) {
		log.Printf("[JWT] push token audience mismatch (subject=%s)", claims.Subject)
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}

	return claims, nil
}
