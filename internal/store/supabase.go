package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	supa "github.com/supabase-community/supabase-go"
	"github.com/vnishchay/reasoning-game/internal/domain"
)

const defaultSupabaseTable = "riddles"

// SupabaseStore implements Repository on a Supabase (PostgREST) table keyed by level.
//
// Expected table shape:
//
//	create table riddles (
//	  level int primary key,
//	  question text not null,
//	  answer text not null,
//	  hints jsonb not null,
//	  generated_at timestamptz not null
//	);
type SupabaseStore struct {
	client *supa.Client
	table  string
}

type supabaseRow struct {
	Level       int       `json:"level"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Hints       []string  `json:"hints"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewSupabase connects to a Supabase project.
func NewSupabase(url, key, table string) (*SupabaseStore, error) {
	if url == "" || key == "" {
		return nil, errors.New("supabase store: SUPABASE_URL and SUPABASE_KEY are required")
	}
	if table == "" {
		table = defaultSupabaseTable
	}
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to supabase: %w", err)
	}
	return &SupabaseStore{client: client, table: table}, nil
}

// Get returns the riddle row for level.
func (s *SupabaseStore) Get(ctx context.Context, level int) (domain.Riddle, error) {
	if err := ctx.Err(); err != nil {
		return domain.Riddle{}, err
	}
	var rows []supabaseRow
	_, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("level", strconv.Itoa(level)).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("select riddle: %w", err)
	}
	if len(rows) == 0 {
		return domain.Riddle{}, fmt.Errorf("level %d: %w", level, ErrNotFound)
	}
	return rows[0].toDomain(), nil
}

// Put upserts the row for r.Level.
func (s *SupabaseStore) Put(ctx context.Context, r domain.Riddle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("put riddle: %w", err)
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	row := supabaseRow{
		Level:       r.Level,
		Question:    r.Question,
		Answer:      r.Answer,
		Hints:       r.Hints,
		GeneratedAt: r.GeneratedAt,
	}
	var inserted []supabaseRow
	if _, err := s.client.From(s.table).Insert(row, true, "level", "representation", "").ExecuteTo(&inserted); err != nil {
		return fmt.Errorf("upsert riddle for level %d: %w", r.Level, err)
	}
	return nil
}

// List returns every stored row ordered by level.
func (s *SupabaseStore) List(ctx context.Context) ([]domain.Riddle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []supabaseRow
	if _, err := s.client.From(s.table).Select("*", "", false).ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("select riddles: %w", err)
	}
	out := make([]domain.Riddle, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

// Ping issues a one-row select to verify the table is reachable.
func (s *SupabaseStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var rows []supabaseRow
	if _, err := s.client.From(s.table).Select("level", "", false).Limit(1, "").ExecuteTo(&rows); err != nil {
		return fmt.Errorf("ping supabase: %w", err)
	}
	return nil
}

// Close is a no-op; the client holds no long-lived connection.
func (s *SupabaseStore) Close() error { return nil }

func (row supabaseRow) toDomain() domain.Riddle {
	return domain.Riddle{
		Level:       row.Level,
		Question:    row.Question,
		Answer:      row.Answer,
		Hints:       row.Hints,
		GeneratedAt: row.GeneratedAt,
	}
}
