package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/verification-mailer/internal/domain/repository"
)

// Store выдает сессии поверх общего пула соединений gorm.
type Store struct {
	db *gorm.DB
}

// NewStore создает Store поверх уже открытого пула
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type session struct {
	users         *UserRepo
	verifications *UserVerificationRepo
}

func (s *session) Users() repository.UserRepository { return s.users }

func (s *session) Verifications() repository.UserVerificationRepository { return s.verifications }

// InSession открывает транзакцию, привязанную к ctx. Соединение возвращается в пул
// после commit или rollback, в том числе при панике внутри fn.
func (s *Store) InSession(ctx context.Context, fn func(repository.Session) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&session{
			users:         NewUserRepo(tx),
			verifications: NewUserVerificationRepo(tx),
		})
	})
}
