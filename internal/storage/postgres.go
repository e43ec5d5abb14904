package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS heyraji_storage (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStorage keeps documents in the heyraji_storage table so several
// installs signed in to the same backend share one record set.
type PostgresStorage struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, verifies the connection and ensures the
// storage table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStorage, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
		return d.DialContext(ctx, network, addr)
	}

	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := NewPostgresStorage(db)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStorage wraps an already configured *sql.DB. The caller owns
// the schema.
func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create storage table: %w", err)
	}
	return nil
}

// Get loads the document stored under key.
func (s *PostgresStorage) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}

	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM heyraji_storage WHERE key = $1`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query storage key %q: %w", key, err)
	}
	return json.RawMessage(raw), true, nil
}

// Set upserts the document under key.
func (s *PostgresStorage) Set(ctx context.Context, key string, value json.RawMessage) error {
	if s.db == nil {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO heyraji_storage (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, []byte(value))
	if err != nil {
		return fmt.Errorf("write storage key %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *PostgresStorage) Remove(ctx context.Context, key string) error {
	if s.db == nil {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM heyraji_storage WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete storage key %q: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStorage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
