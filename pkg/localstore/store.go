package localstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/mentorhub/mentorhub-backend/pkg/config"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the device-local persistent key-value store. Each collection is a
// single JSON document stored under a fixed key. Failures are never swallowed
// here; the hybrid layer decides what is tolerable.
type Store struct {
	conn *gorm.DB
}

type entry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value;not null"`
}

func (entry) TableName() string { return "collections" }

// Open boots the SQLite-backed local store, creating the collections table
// when missing. Safe to call more than once against the same path.
func Open(ctx context.Context, cfg config.LocalStoreConfig, logg *logger.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("local store path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("preparing collections table: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "local store opened")
	}

	return &Store{conn: conn}, nil
}

// Get returns the JSON text stored under key. The second return reports
// whether the key was present at all.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var row entry
	err := s.conn.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("local get %q: %w", key, err)
	}
	return row.Value, true, nil
}

// Set stores the JSON text under key, replacing any prior value. Last write
// wins; there is no locking across concurrent writers.
func (s *Store) Set(ctx context.Context, key, value string) error {
	row := entry{Key: key, Value: value}
	err := s.conn.WithContext(ctx).Save(&row).Error
	if err != nil {
		return fmt.Errorf("local set %q: %w", key, err)
	}
	return nil
}

// Remove deletes the key. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	err := s.conn.WithContext(ctx).Delete(&entry{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("local remove %q: %w", key, err)
	}
	return nil
}

// Clear wipes every collection. Test helper only.
func (s *Store) Clear(ctx context.Context) error {
	err := s.conn.WithContext(ctx).Exec("DELETE FROM collections").Error
	if err != nil {
		return fmt.Errorf("local clear: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
