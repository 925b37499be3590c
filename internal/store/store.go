// Package store persists supply-chain records through GORM and enforces the
// audit envelope and restrict-on-delete rules of the catalog.
package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldtrace/fieldtrace/internal/schema"
)

// Config selects and tunes the database behind a Store.
type Config struct {
	Driver       string // postgres, mysql, sqlite or sqlserver
	DSN          string
	LogLevel     string // silent, error, warn or info
	MaxOpenConns int
}

// Store is the single entry point for reading and writing records.
type Store struct {
	db       *gorm.DB
	dialect  schema.Dialect
	catalog  *schema.Schema
	validate *validator.Validate
	parsed   sync.Map
	now      func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the clock used to stamp audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open connects to the configured database and checks it answers.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	dialect, err := schema.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("DSN is required")
	}

	db, err := gorm.Open(dialector(dialect, cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	// One writer keeps SQLite (and in-memory databases) consistent.
	if dialect == schema.DialectSQLite {
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(min(5, maxOpen))
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	s := &Store{
		db:       db,
		dialect:  dialect,
		catalog:  schema.Catalog(),
		validate: newValidator(),
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dialect reports which SQL flavour the store talks to.
func (s *Store) Dialect() schema.Dialect {
	return s.dialect
}

// Migrate creates every catalog table that does not exist yet, parents
// first, and returns the names of the tables it created.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	db := s.db.WithContext(ctx)

	var created []string
	for _, table := range s.catalog.Tables {
		if db.Migrator().HasTable(table.Name) {
			continue
		}

		stmt, err := schema.CreateTable(table, s.dialect)
		if err != nil {
			return created, err
		}
		stmts := append([]string{stmt}, schema.CreateIndexes(table, s.dialect)...)

		for _, sql := range stmts {
			if err := db.Exec(sql).Error; err != nil {
				return created, fmt.Errorf("failed to create %s: %w", table.Name, err)
			}
		}
		created = append(created, table.Name)
	}

	return created, nil
}

func dialector(d schema.Dialect, dsn string) gorm.Dialector {
	switch d {
	case schema.DialectMySQL:
		return mysql.Open(withParam(dsn, "parseTime", "true"))
	case schema.DialectSQLite:
		return sqlite.Open(withParam(dsn, "_foreign_keys", "on"))
	case schema.DialectSQLServer:
		return sqlserver.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

// withParam appends key=value to a DSN query string unless key is present.
func withParam(dsn, key, value string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}

// newValidator reports fields by their column names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}
