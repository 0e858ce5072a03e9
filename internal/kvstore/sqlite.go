package kvstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// slot is one stored key-value pair
type slot struct {
	Name      string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (slot) TableName() string {
	return "slots"
}

// SQLite stores slots in a local SQLite database file
type SQLite struct {
	db  *gorm.DB
	log zerolog.Logger
}

// OpenSQLite opens (or creates) the database at path and migrates the schema.
// An empty path uses an in-memory database.
func OpenSQLite(path string, log zerolog.Logger) (*SQLite, error) {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		dsn = path
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	if err := db.AutoMigrate(&slot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate slots table: %w", err)
	}

	if path == "" {
		log.Info().Msg("Using SQLite slot store in memory")
	} else {
		log.Info().Str("path", path).Msg("Using SQLite slot store")
	}
	return &SQLite{db: db, log: log}, nil
}

func (s *SQLite) Get(key string) (string, bool, error) {
	var row slot
	err := s.db.Where("name = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return row.Value, true, nil
}

func (s *SQLite) Set(key, value string) error {
	row := slot{Name: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	s.log.Debug().Str("slot", key).Int("bytes", len(value)).Msg("Slot written")
	return nil
}

func (s *SQLite) Delete(key string) error {
	if err := s.db.Where("name = ?", key).Delete(&slot{}).Error; err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
