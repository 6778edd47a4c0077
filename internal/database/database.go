package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sitrack/sitrack-gin/internal/config"
	"github.com/sitrack/sitrack-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// BuildDSN builds the PostgreSQL DSN from config.
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// Connect opens the configured database (postgres by default, sqlite
// when driver is "sqlite") and applies the pool settings.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.Driver == "sqlite" {
		path := cfg.Path
		if path == "" {
			path = "sitrack.db"
		}
		dialector = sqlite.Open(path)
	} else {
		dialector = postgres.Open(BuildDSN(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 10
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 100
	}
	maxLifetime := cfg.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = 3600
	}
	maxIdleTime := cfg.ConnMaxIdleTime
	if maxIdleTime == 0 {
		maxIdleTime = 600
	}

	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(maxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(maxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry retries Connect with exponential backoff.
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate creates or updates the schema for all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Report{},
		&model.TaskAssignment{},
		&model.WorkflowEntry{},
		&model.FileAttachment{},
		&model.Snapshot{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// CreateIndexes creates the query-path indexes.
func CreateIndexes(db *gorm.DB) error {
	indexes := []struct {
		name string
		stmt string
	}{
		{"idx_reports_no_surat", "CREATE INDEX IF NOT EXISTS idx_reports_no_surat ON reports(no_surat)"},
		{"idx_reports_status", "CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status)"},
		{"idx_reports_updated_at", "CREATE INDEX IF NOT EXISTS idx_reports_updated_at ON reports(updated_at)"},
		{"idx_assignments_report_id", "CREATE INDEX IF NOT EXISTS idx_assignments_report_id ON task_assignments(report_id)"},
		{"idx_assignments_status", "CREATE INDEX IF NOT EXISTS idx_assignments_status ON task_assignments(status)"},
		{"idx_workflow_report_id", "CREATE INDEX IF NOT EXISTS idx_workflow_report_id ON workflow_history(report_id)"},
		{"idx_workflow_timestamp", "CREATE INDEX IF NOT EXISTS idx_workflow_timestamp ON workflow_history(timestamp)"},
		{"idx_attachments_report_id", "CREATE INDEX IF NOT EXISTS idx_attachments_report_id ON file_attachments(report_id)"},
		{"idx_profiles_role", "CREATE INDEX IF NOT EXISTS idx_profiles_role ON profiles(role)"},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.stmt).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", idx.name, err)
		}
	}

	return nil
}

// CheckHealth pings the database with a short timeout.
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx) == nil
}
