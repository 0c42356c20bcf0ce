package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteKey = "userData"

	sqliteSchema = `CREATE TABLE IF NOT EXISTS preferences (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`
)

// SQLiteStore keeps the user data blob in a single-row key/value table.
type SQLiteStore struct {
	conn *sql.DB
}

func OpenSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (*UserData, error) {
	var contents string

	err := s.conn.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, sqliteKey).Scan(&contents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var data UserData
	if err := json.Unmarshal([]byte(contents), &data); err != nil {
		return nil, fmt.Errorf("decoding stored preferences: %w", err)
	}

	return &data, nil
}

func (s *SQLiteStore) Save(ctx context.Context, data *UserData) error {
	contents, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		sqliteKey, string(contents), time.Now().UTC().Format(time.RFC3339))

	return err
}
