package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vnishchay/reasoning-game/internal/domain"
	"github.com/vnishchay/reasoning-game/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
//
// Every Put appends a row, so the table doubles as a generation history.
// Reads always resolve to the newest row of a level.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite store: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS riddles (
		id TEXT PRIMARY KEY,
		level INTEGER NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		hints_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_riddles_level_created ON riddles(level, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get returns the newest riddle row for level.
func (s *SQLiteStore) Get(ctx context.Context, level int) (domain.Riddle, error) {
	query := `
		SELECT level, question, answer, hints_json, created_at
		FROM riddles WHERE level = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`

	r, err := scanRiddle(s.db.QueryRowContext(ctx, query, level))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Riddle{}, fmt.Errorf("level %d: %w", level, ErrNotFound)
	}
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("scan riddle row: %w", err)
	}
	return r, nil
}

// Put appends r as the newest row for its level.
// SQLITE_BUSY conflicts are retried with exponential backoff.
func (s *SQLiteStore) Put(ctx context.Context, r domain.Riddle) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("put riddle: %w", err)
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	hints, err := json.Marshal(r.Hints)
	if err != nil {
		return fmt.Errorf("marshal hints: %w", err)
	}

	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err = s.insertOnce(ctx, r, string(hints))
		if err == nil {
			return nil
		}
		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("Riddle insert hit a locked database, retrying",
				"level", r.Level,
				"attempt", i+1,
				"delay", delay)
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		break
	}
	return fmt.Errorf("insert riddle for level %d: %w", r.Level, err)
}

func (s *SQLiteStore) insertOnce(ctx context.Context, r domain.Riddle, hintsJSON string) error {
	query := `
	INSERT INTO riddles (id, level, question, answer, hints_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), r.Level, r.Question, r.Answer, hintsJSON, r.GeneratedAt.UnixNano(),
	)
	return err
}

// List returns the newest riddle of every stored level.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Riddle, error) {
	query := `
		SELECT r.level, r.question, r.answer, r.hints_json, r.created_at
		FROM riddles r
		WHERE r.rowid = (
			SELECT r2.rowid FROM riddles r2
			WHERE r2.level = r.level
			ORDER BY r2.created_at DESC, r2.rowid DESC
			LIMIT 1
		)
		ORDER BY r.level`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query riddles: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close riddle rows", "error", closeErr)
		}
	}()

	var out []domain.Riddle
	for rows.Next() {
		r, err := scanRiddle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan riddle row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate riddles: %w", err)
	}
	return out, nil
}

// HistoryCount returns how many generations have been recorded for level.
func (s *SQLiteStore) HistoryCount(ctx context.Context, level int) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM riddles WHERE level = ?`, level).Scan(&n); err != nil {
		return 0, fmt.Errorf("count riddle history: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRiddle(row rowScanner) (domain.Riddle, error) {
	var r domain.Riddle
	var hintsJSON string
	var createdAt int64

	if err := row.Scan(&r.Level, &r.Question, &r.Answer, &hintsJSON, &createdAt); err != nil {
		return domain.Riddle{}, err
	}
	if err := json.Unmarshal([]byte(hintsJSON), &r.Hints); err != nil {
		return domain.Riddle{}, fmt.Errorf("decode hints: %w", err)
	}
	r.GeneratedAt = time.Unix(0, createdAt).UTC()
	return r, nil
}
