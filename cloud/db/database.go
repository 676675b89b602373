// Package db persists estimation results for the web control plane.
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite" // Pure Go SQLite (no CGO required)
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM database connection
type Database struct {
	*gorm.DB
}

// Config holds database configuration
type Config struct {
	Driver string // "sqlite" or "postgres"
	DSN    string // Data Source Name
	Debug  bool   // Enable query logging
}

// DefaultSQLiteConfig returns config for the local SQLite database
func DefaultSQLiteConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		Driver: "sqlite",
		DSN:    filepath.Join(homeDir, ".sizer", "sizer.db"),
		Debug:  false,
	}
}

// New creates a new database connection and runs migrations. For SQLite the
// database directory is created first so a missing or unwritable path fails
// here instead of as an opaque open error.
func New(cfg Config) (*Database, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&EstimateRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{DB: db}, nil
}

// SaveEstimate persists one finished (or failed) estimation.
func (d *Database) SaveEstimate(rec *EstimateRecord) error {
	return d.Create(rec).Error
}

// RecentEstimates returns the newest estimations, most recent first.
func (d *Database) RecentEstimates(limit int) ([]EstimateRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []EstimateRecord
	err := d.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// EstimatesForImage returns the history of one image, most recent first.
func (d *Database) EstimatesForImage(image string, limit int) ([]EstimateRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []EstimateRecord
	err := d.Where("image = ?", image).Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
