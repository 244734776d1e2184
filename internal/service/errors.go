package service

import "errors"

// Ошибки сервисного слоя
var (
	// ErrInvalidVerificationCode возвращается, если в коде нет сегмента с токеном.
	ErrInvalidVerificationCode = errors.New("invalid verification code")
)
