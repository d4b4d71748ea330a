package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/waikato-ufdl/simple-teams/internal/config"
	"github.com/waikato-ufdl/simple-teams/internal/log"
	"github.com/waikato-ufdl/simple-teams/internal/models"
)

// Open connects to the database named by the config without touching its schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DatabaseType {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite", "":
		dialector = sqlite.Open(sqliteDSN(cfg.DatabaseURL))
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.Log, logger.Config{
			SlowThreshold:             cfg.SlowThreshold,
			Colorful:                  false,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  logLevel(log.Log.Logger.GetLevel()),
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.DatabaseType, err)
	}
	log.Log.WithField("type", cfg.DatabaseType).Debug("database connected")

	return db, nil
}

// foreignKeysPragma turns on foreign key enforcement, which sqlite leaves off
// for every new connection unless asked.
const foreignKeysPragma = "_pragma=foreign_keys(1)"

func sqliteDSN(dsn string) string {
	if dsn == "" || strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + foreignKeysPragma
	}
	return dsn + "?" + foreignKeysPragma
}

func logLevel(level logrus.Level) logger.LogLevel {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return logger.Error
	case logrus.WarnLevel, logrus.InfoLevel:
		return logger.Warn
	default:
		return logger.Info
	}
}

// AutoMigrate creates or updates the tables, including the partial unique
// indexes that keep active team names and active memberships unique.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.Membership{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SeedSuperuser creates the configured superuser unless a user with that
// name already exists. It reports whether a user was created.
func SeedSuperuser(ctx context.Context, db *gorm.DB, cfg *config.Config) (*models.User, bool, error) {
	var existing models.User
	err := db.WithContext(ctx).Where("username = ?", cfg.SuperuserName).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up superuser: %w", err)
	}

	admin := &models.User{
		Username:  cfg.SuperuserName,
		Email:     cfg.SuperuserEmail,
		Superuser: true,
		Staff:     true,
	}
	if err := db.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create superuser: %w", err)
	}

	log.Log.WithField(log.UserField, admin.ID.String()).
		WithField("username", admin.Username).
		Info("seeded superuser")

	return admin, true, nil
}
