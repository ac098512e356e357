// Package store persists restaurants, users and orders through gorm.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feastly/internal/models"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store wraps a gorm connection
type Store struct {
	db *gorm.DB
}

// Options configures the connection pool
type Options struct {
	Driver       string // "sqlite3" or "postgres"
	DSN          string
	LogMode      bool
	MaxIdleConns int
	MaxOpenConns int
}

// Open connects to the database described by opts.
// Postgres connections go through the pgx database/sql driver and are handed to
// gorm's postgres dialect.
func Open(opts Options) (*Store, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch opts.Driver {
	case "sqlite3", "sqlite", "":
		db, err = gorm.Open("sqlite3", opts.DSN)
	case "postgres", "pgx":
		var sqlDB *sql.DB
		sqlDB, err = sql.Open("pgx", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres connection: %w", err)
		}
		db, err = gorm.Open("postgres", sqlDB)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.LogMode(opts.LogMode)

	if opts.MaxIdleConns > 0 {
		db.DB().SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.MaxOpenConns > 0 {
		db.DB().SetMaxOpenConns(opts.MaxOpenConns)
	}
	db.DB().SetConnMaxLifetime(time.Hour)

	return New(db), nil
}

// New wraps an existing gorm connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying gorm handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate creates or updates every table the service uses
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&models.Restaurant{},
		&models.MenuItem{},
		&models.User{},
		&models.UserAddress{},
		&models.Order{},
		&models.OrderItem{},
	).Error
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.DB().PingContext(ctx)
}

// WithTx runs fn inside a transaction, committing when fn returns nil
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	tx := s.db.BeginTx(ctx, nil)
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(New(tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// notFound maps gorm's not-found error onto models.ErrNotFound
func notFound(err error, what string, id interface{}) error {
	if gorm.IsRecordNotFoundError(err) {
		return fmt.Errorf("%s %v: %w", what, id, models.ErrNotFound)
	}
	if errors.Is(err, models.ErrNotFound) {
		return err
	}
	return fmt.Errorf("failed to load %s %v: %w", what, id, err)
}
