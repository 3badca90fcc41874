// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/firenoc-backend/internal/config"
	"github.com/javajoker/firenoc-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established")
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Application{},
		&models.Inspection{},
		&models.Certificate{},
		&models.License{},
		&models.Notification{},
		&models.AuditLog{},
		&models.Sequence{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Sweep queries
		"CREATE INDEX IF NOT EXISTS idx_applications_inspection_due ON applications(deadline_inspection) WHERE is_overdue = false AND deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_applications_follow_up_due ON applications(deadline_follow_up) WHERE is_overdue = false AND deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_noc_certificates_active_expiry ON noc_certificates(valid_until) WHERE status = 'active'",
		"CREATE INDEX IF NOT EXISTS idx_licenses_active_expiry ON licenses(valid_until) WHERE status = 'active'",

		// Listing
		"CREATE INDEX IF NOT EXISTS idx_applications_created_at ON applications(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_applications_assignee_status ON applications(assigned_to, status)",
		"CREATE INDEX IF NOT EXISTS idx_inspections_inspector_status ON inspections(inspector_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_users_role_active ON users(role, is_active, created_at)",

		// Notifications and audit
		"CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created ON notifications(recipient_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedInitialData creates the bootstrap administrator account.
func SeedInitialData(db *gorm.DB) error {
	return WithTransaction(db, func(tx *gorm.DB) error {
		var adminCount int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&adminCount).Error; err != nil {
			return fmt.Errorf("failed to count administrators: %w", err)
		}
		if adminCount > 0 {
			return nil
		}

		admin := &models.User{
			Name:        "System Administrator",
			Email:       "admin@firenoc.local",
			Role:        models.UserRoleAdmin,
			IsActive:    true,
			NotifyInApp: true,
		}
		if err := tx.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.WithField("user_id", admin.ID).Info("Default admin user created")
		return nil
	})
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
