package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"wrenchbid/db/migrations"
)

// DB is the transactional store behind the RFQ engine. Every
// concurrency-critical gate (capacity, duplicate bid, single accept)
// lives here as a conditional update or constraint, never as
// application-level read-then-write.
type DB struct {
	*sqlx.DB
	logger zerolog.Logger
}

// New opens (creating if needed) the sqlite database at path and runs
// the embedded migrations. ":memory:" is honored for tests.
func New(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?%s", path, url.Values{
		"_busy_timeout": {"5000"},
		"_journal_mode": {"WAL"},
		"_foreign_keys": {"on"},
	}.Encode())

	conn, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY churn between the conditional-update transactions.
	conn.SetMaxOpenConns(1)

	if err := migrations.Up(conn); err != nil {
		conn.Close()
		return nil, err
	}

	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "database").Logger()
	}
	base.Info().Str("path", path).Msg("database ready")

	return &DB{DB: conn, logger: base}, nil
}
