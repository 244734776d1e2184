package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/verification-mailer/internal/domain/entity"
	apperrors "github.com/yourusername/verification-mailer/internal/pkg/errors"
)

// UserVerificationRepo реализует repository.UserVerificationRepository
type UserVerificationRepo struct {
	db *gorm.DB
}

// NewUserVerificationRepo создает репозиторий кодов верификации
func NewUserVerificationRepo(db *gorm.DB) *UserVerificationRepo {
	return &UserVerificationRepo{db: db}
}

// Create сохраняет выданный код. Значения полей берутся из записи как есть,
// поэтому expires_at всегда совпадает с sent_at + TTL.
func (r *UserVerificationRepo) Create(ctx context.Context, v *entity.UserVerification) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
		}
		return fmt.Errorf("failed to create user verification: %w", err)
	}
	return nil
}

// isConstraintViolation опирается на gorm.Config.TranslateError.
func isConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated)
}
