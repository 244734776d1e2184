package database

import (
	"errors"
	"fmt"
	"log"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	migrateDatabase "github.com/golang-migrate/migrate/v4/database"
	migrateMysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/yourusername/verification-mailer/internal/domain/entity"
	"github.com/yourusername/verification-mailer/migrations"
)

// MigrateDB применяет встроенные SQL-миграции для драйвера. Для sqlite схема
// создается через AutoMigrate, так как SQL-файлы для нее не поставляются.
func MigrateDB(db *gorm.DB, driver string) error {
	log.Printf("[Database] applying migrations (driver=%s)...", driver)

	if driver == "sqlite" {
		if err := db.AutoMigrate(&entity.User{}, &entity.UserVerification{}); err != nil {
			return fmt.Errorf("failed to auto-migrate sqlite schema: %w", err)
		}
		log.Println("[Database] sqlite schema is up to date")
		return nil
	}

	m, err := newMigrator(db, driver)
	if err != nil {
		return err
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrateV4.ErrNoChange):
		log.Println("[Database] no new migrations, schema is up to date")
	case err != nil:
		return fmt.Errorf("failed to apply migrations: %w", err)
	default:
		log.Println("[Database] migrations applied")
	}
	return nil
}

// ForceVersion сбрасывает флаг dirty и выставляет версию схемы.
func ForceVersion(db *gorm.DB, driver string, version int) error {
	m, err := newMigrator(db, driver)
	if err != nil {
		return err
	}
	if err := m.Force(version); err != nil {
		return fmt.Errorf("failed to force migration version %d: %w", version, err)
	}
	log.Printf("[Database] migration version forced to %d", version)
	return nil
}

func newMigrator(db *gorm.DB, driver string) (*migrateV4.Migrate, error) {
	sqlDB, err := GetSQLDB(db)
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database is not reachable before migration: %w", err)
	}

	var dbDriver migrateDatabase.Driver
	switch driver {
	case "mysql", "":
		driver = "mysql"
		dbDriver, err = migrateMysql.WithInstance(sqlDB, &migrateMysql.Config{})
	case "postgres":
		dbDriver, err = migratePostgres.WithInstance(sqlDB, &migratePostgres.Config{})
	default:
		return nil, fmt.Errorf("migrations are not supported for driver %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", driver, err)
	}

	source, err := iofs.New(migrations.FS, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrateV4.NewWithInstance("iofs", source, driver, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
