package repository

import (
	"context"

	"github.com/yourusername/verification-mailer/internal/domain/entity"
)

// UserRepository определяет методы для чтения пользователей
type UserRepository interface {
	// GetByUsername возвращает пользователя по username или apperrors.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}
