package database

import (
	"fmt"
	"time"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the process-wide database connection
var DB *gorm.DB

func gormConfig(logMode gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logMode),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Initialize opens the PostgreSQL connection and configures the pool
func Initialize(databaseURL string, development bool) (*gorm.DB, error) {
	logMode := gormlogger.Warn
	if development {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(databaseURL), gormConfig(logMode))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	logger.Log.Info("✅ Database connected successfully")
	return db, nil
}

// OpenSQLite opens a SQLite database with the same gorm settings as
// production and migrates it. Tests use "file::memory:".
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(gormlogger.Silent))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// A single connection keeps an in-memory database alive and shared.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs auto-migration for all models and creates extra indexes
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Community{},
		&models.CommunityMember{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Log.Info("✅ Database migrations completed")
	return nil
}

// createIndexes adds the partial and expression indexes AutoMigrate cannot
// express. The statements are valid on both postgres and sqlite.
func createIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_unique_lower ON users (LOWER(email))",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id) WHERE is_read = false",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_open_batch ON notifications (user_id, batch_key) WHERE batch_key IS NOT NULL AND is_read = false",
		"CREATE INDEX IF NOT EXISTS idx_community_members_admins ON community_members (community_id) WHERE role = 'admin'",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
