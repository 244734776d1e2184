package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/verification-mailer/internal/config"
	"github.com/yourusername/verification-mailer/internal/domain/entity"
	"github.com/yourusername/verification-mailer/internal/domain/repository"
	apperrors "github.com/yourusername/verification-mailer/internal/pkg/errors"
	"github.com/yourusername/verification-mailer/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDB(config.DatabaseConfig{
		Driver: "sqlite",
		Name:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db, "sqlite"))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *entity.User {
	t.Helper()
	user := &entity.User{Username: username, FirstName: "Jane"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestUserRepo_GetByUsername(t *testing.T) {
	db := newTestDB(t)
	seeded := seedUser(t, db, "jane@example.com")
	repo := NewUserRepo(db)

	user, err := repo.GetByUsername(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
	assert.Equal(t, "Jane", user.FirstName)

	_, err = repo.GetByUsername(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserVerificationRepo_Create(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane@example.com")
	repo := NewUserVerificationRepo(db)

	sentAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	record := entity.NewUserVerification(user.ID, "token", sentAt, 2*time.Minute)
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotZero(t, record.ID)

	var stored entity.UserVerification
	require.NoError(t, db.First(&stored, record.ID).Error)
	assert.Equal(t, user.ID, stored.UserID)
	assert.Equal(t, "token", stored.VerificationCode)
	assert.False(t, stored.IsUsed)
	assert.True(t, stored.SentAt.Equal(sentAt))
	assert.True(t, stored.ExpiresAt.Equal(sentAt.Add(2*time.Minute)))
}

func TestIsConstraintViolation(t *testing.T) {
	assert.True(t, isConstraintViolation(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, isConstraintViolation(gorm.ErrForeignKeyViolated))
	assert.False(t, isConstraintViolation(errors.New("disk full")))
}

func TestStore_InSessionCommits(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "jane@example.com")
	store := NewStore(db)

	err := store.InSession(context.Background(), func(s repository.Session) error {
		user, err := s.Users().GetByUsername(context.Background(), "jane@example.com")
		if err != nil {
			return err
		}
		return s.Verifications().Create(context.Background(), entity.NewUserVerification(user.ID, "tok", time.Now().UTC(), time.Minute))
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&entity.UserVerification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStore_InSessionRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane@example.com")
	store := NewStore(db)
	boom := errors.New("boom")

	err := store.InSession(context.Background(), func(s repository.Session) error {
		if err := s.Verifications().Create(context.Background(), entity.NewUserVerification(user.ID, "tok", time.Now().UTC(), time.Minute)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&entity.UserVerification{}).Count(&count).Error)
	assert.Zero(t, count)
}
