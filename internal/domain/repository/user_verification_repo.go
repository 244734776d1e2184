package repository

import (
	"context"

	"github.com/yourusername/verification-mailer/internal/domain/entity"
)

// UserVerificationRepository persists issued verification codes.
type UserVerificationRepository interface {
	// Create inserts the record. Constraint violations are reported as apperrors.ErrConflict.
	Create(ctx context.Context, v *entity.UserVerification) error
}
