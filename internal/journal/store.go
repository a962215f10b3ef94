package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ascbridge/internal/wire"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates a journal written by an incompatible version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

// Direction tells whether an entry went to or came from the peer.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Entry is one journaled message.
type Entry struct {
	ID         int64
	SessionID  string
	Direction  Direction
	Type       string
	Name       string
	Method     string
	Key        string
	Answer     string
	RecordedAt time.Time
}

// Store is the SQLite-backed journal.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the journal database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("journal path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection; one connection keeps busy_timeout in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordSent journals a request written to the peer.
func (s *Store) RecordSent(ctx context.Context, sessionID, key string) error {
	req, _ := wire.ParseRequest(key)
	return s.insert(ctx, sessionID, DirectionSent, req, key, nil)
}

// RecordAnswer journals an answer read from the peer.
func (s *Store) RecordAnswer(ctx context.Context, sessionID string, answer wire.Answer) error {
	value := string(answer.Value)
	if value == "" {
		value = "null"
	}
	return s.insert(ctx, sessionID, DirectionReceived, answer.Request, answer.Key, &value)
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, direction, request_type, request_name, request_method,
                correlation_key, answer, recorded_at
         FROM exchanges ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry                     Entry
			direction                 string
			reqType, reqName, reqMeth sql.NullString
			answer                    sql.NullString
			recordedAt                string
		)
		if err := rows.Scan(&entry.ID, &entry.SessionID, &direction, &reqType, &reqName, &reqMeth,
			&entry.Key, &answer, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		entry.Direction = Direction(direction)
		entry.Type = reqType.String
		entry.Name = reqName.String
		entry.Method = reqMeth.String
		entry.Answer = answer.String
		if ts, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			entry.RecordedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return entries, nil
}

func (s *Store) insert(ctx context.Context, sessionID string, dir Direction, req wire.Request, key string, answer *string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (
            session_id, direction, request_type, request_name, request_method,
            correlation_key, answer, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		string(dir),
		nullableString(req.Type),
		nullableString(req.Name),
		nullableString(req.Method),
		key,
		answer,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: journal has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
