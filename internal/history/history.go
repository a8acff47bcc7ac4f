package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"

	StatusDone   = "done"
	StatusFailed = "failed"

	memoryDSN = ":memory:"
)

var ErrInvalidLimit = errors.New("history: limit must be positive")

// Transfer is one finished inbound or outbound transfer attempt.
type Transfer struct {
	ID        uint `gorm:"primaryKey"`
	Direction string
	Peer      string
	FileName  string
	FilePath  string
	FileSize  int64
	Status    string
	Error     string
	CreatedAt int64 `gorm:"autoCreateTime:milli;index"`
}

type Store struct {
	DB *gorm.DB
}

// Open opens the history database at path. An empty path keeps everything in
// memory for the lifetime of the process.
func Open(path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = memoryDSN
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("history: open %q: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	// Every pooled connection to an in-memory database would see its own
	// empty database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Transfer{}); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Record(ctx context.Context, t *Transfer) error {
	return s.DB.WithContext(ctx).Create(t).Error
}

// Recent returns up to limit transfers, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Transfer, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	var out []Transfer
	err := s.DB.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
