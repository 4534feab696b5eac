// Package db owns the database connection.
package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxRetries    = 60
	retryInterval = 2 * time.Second
)

// Connect opens the database and waits for it to accept connections,
// retrying for up to maxRetries * retryInterval (the database container may
// still be starting).
func Connect(dsn string) (*gorm.DB, error) {
	lg := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             100 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: lg})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if lastErr = sqlDB.Ping(); lastErr == nil {
			log.Println("[db] connected to database")
			return gdb, nil
		}
		log.Printf("[db] attempt %d/%d: database not ready: %v", attempt, maxRetries, lastErr)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("database not reachable after %d attempts: %w", maxRetries, lastErr)
}
