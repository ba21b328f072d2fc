package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Store is a KeyValueStore backed by ClickHouse. Writes append a versioned
// row per key into kv_entries (ReplacingMergeTree); reads take the newest
// row, so the table doubles as a change history of each collection.
type Store struct {
	conn clickhouse.Conn
}

// New creates a new ClickHouse-backed store.
func New(host string, port int, database, user, password string, useTLS bool) (*Store, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Get returns the latest value for key, or (nil, nil) when never written.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	row := s.conn.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE key = ? ORDER BY version DESC LIMIT 1`, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(value), nil
}

// Set appends a new version row for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	err := s.conn.Exec(ctx,
		`INSERT INTO kv_entries (key, value, version) VALUES (?, ?, ?)`,
		key, string(value), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
