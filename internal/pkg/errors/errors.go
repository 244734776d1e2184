package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись (например, пользователь) не найдена.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных и конфигурации.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для нарушений ограничений БД (дубликат ключа, внешний ключ).
	ErrConflict = errors.New("resource state conflict")

	// ErrMalformedEvent используется, когда входящее сообщение не удалось декодировать.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrDeliveryFailed используется, когда почтовый провайдер не подтвердил отправку.
	ErrDeliveryFailed = errors.New("email delivery failed")

	// ErrUnauthorized используется, когда push-запрос не прошёл проверку токена.
	ErrUnauthorized = errors.New("unauthorized")
)
