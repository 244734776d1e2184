package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewUserVerification_ExpiryIsSentAtPlusTTL(t *testing.T) {
	sentAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	v := NewUserVerification(42, "token", sentAt, 2*time.Minute)

	assert.Equal(t, uint(42), v.UserID)
	assert.Equal(t, "token", v.VerificationCode)
	assert.False(t, v.IsUsed)
	assert.True(t, v.ExpiresAt.After(v.SentAt))
	assert.Equal(t, 2*time.Minute, v.ExpiresAt.Sub(v.SentAt))
}

func TestUserVerification_IsExpired(t *testing.T) {
	sentAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	v := NewUserVerification(1, "token", sentAt, time.Minute)

	assert.False(t, v.IsExpired(sentAt), "свежий код не должен быть просрочен")
	assert.False(t, v.IsExpired(sentAt.Add(time.Minute)), "граница TTL ещё не считается истечением")
	assert.True(t, v.IsExpired(sentAt.Add(time.Minute+time.Second)))
}
