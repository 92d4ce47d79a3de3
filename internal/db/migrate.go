package db

import (
	"finance_portal/internal/domain" // Importing domain models
	"time"                           // For the UTC clock and pool lifetime

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger levels
)

// Models lists every table owned by the portal, in dependency order
var Models = []any{&domain.User{}, &domain.Account{}, &domain.Payment{}, &domain.Transaction{}}

// GormConfig returns the shared GORM settings. Timestamps are always written in UTC
// so the spending windows compare like with like.
func GormConfig(debug bool) *gorm.Config {
	level := logger.Warn // Only slow queries and errors by default
	if debug {
		level = logger.Info // Every statement in debug mode
	}
	gormLogger := logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond, // Slow query warning
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true, // Lookups that miss are expected (first account access)
	})
	return &gorm.Config{
		Logger:         gormLogger,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true, // Unique violations surface as gorm.ErrDuplicatedKey
	}
}

// Connect opens the MySQL database and sizes the connection pool
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), GormConfig(debug)) // Open a connection to the database
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB() // Underlying pool
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)           // Upper bound of concurrent requests hitting MySQL
	sqlDB.SetMaxIdleConns(5)            // Keep a few warm connections
	sqlDB.SetConnMaxLifetime(time.Hour) // Recycle hourly
	return db, nil
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
