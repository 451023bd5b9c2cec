// Package leaderboard keeps a local registry of finished benchmark runs
// in SQLite so that models can be ranked and tracked across runs.
package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultLimit = 50

type Store struct {
	db *sql.DB
}

// Entry is one recorded benchmark run.
type Entry struct {
	ID               int64     `json:"id"`
	Model            string    `json:"model"`
	Backend          string    `json:"backend"`
	PromptMode       string    `json:"prompt_mode"`
	Problem          string    `json:"problem"`
	Seed             int64     `json:"seed"`
	Accuracy         float64   `json:"accuracy"`
	Correct          int       `json:"correct"`
	Answered         int       `json:"answered"`
	Total            int       `json:"total"`
	PromptTokens     int       `json:"prompt_tokens"`
	CachedTokens     int       `json:"cached_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	EvalDate         time.Time `json:"eval_date"`
}

func NewStore(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("leaderboard: empty db path")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("leaderboard: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("leaderboard: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("leaderboard: nil db")
	}

	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS benchmark_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model TEXT NOT NULL,
			backend TEXT NOT NULL,
			prompt_mode TEXT NOT NULL,
			problem TEXT NOT NULL,
			seed INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			correct INTEGER NOT NULL,
			answered INTEGER NOT NULL,
			total INTEGER NOT NULL,
			prompt_tokens INTEGER NOT NULL,
			cached_tokens INTEGER NOT NULL,
			completion_tokens INTEGER NOT NULL,
			eval_date INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_problem ON benchmark_runs(problem)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model_problem ON benchmark_runs(model, problem)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_eval_date ON benchmark_runs(eval_date)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("leaderboard: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, entry *Entry) error {
	if s == nil || s.db == nil {
		return errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return errors.New("leaderboard: nil context")
	}
	if entry == nil {
		return errors.New("leaderboard: nil entry")
	}

	model := strings.TrimSpace(entry.Model)
	backend := strings.TrimSpace(entry.Backend)
	problem := strings.TrimSpace(entry.Problem)
	if model == "" || backend == "" || problem == "" {
		return errors.New("leaderboard: missing model/backend/problem")
	}

	mode := strings.TrimSpace(entry.PromptMode)
	evalDate := entry.EvalDate
	if evalDate.IsZero() {
		evalDate = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO benchmark_runs (
			model, backend, prompt_mode, problem, seed, accuracy, correct,
			answered, total, prompt_tokens, cached_tokens, completion_tokens, eval_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, model, backend, mode, problem, entry.Seed, entry.Accuracy, entry.Correct,
		entry.Answered, entry.Total, entry.PromptTokens, entry.CachedTokens,
		entry.CompletionTokens, evalDate.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("leaderboard: insert run: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	entry.EvalDate = evalDate
	entry.Model = model
	entry.Backend = backend
	entry.PromptMode = mode
	entry.Problem = problem
	return nil
}

// List returns the best runs for a problem, ranked by accuracy.
func (s *Store) List(ctx context.Context, problem string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return nil, errors.New("leaderboard: empty problem")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, backend, prompt_mode, problem, seed, accuracy, correct,
			answered, total, prompt_tokens, cached_tokens, completion_tokens, eval_date
		FROM benchmark_runs
		WHERE problem = ?
		ORDER BY accuracy DESC, correct DESC, eval_date DESC
		LIMIT ?
	`, problem, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query runs: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// ModelHistory returns every recorded run of a model on a problem,
// newest first.
func (s *Store) ModelHistory(ctx context.Context, model, problem string) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	model = strings.TrimSpace(model)
	problem = strings.TrimSpace(problem)
	if model == "" || problem == "" {
		return nil, errors.New("leaderboard: missing model/problem")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, backend, prompt_mode, problem, seed, accuracy, correct,
			answered, total, prompt_tokens, cached_tokens, completion_tokens, eval_date
		FROM benchmark_runs
		WHERE model = ? AND problem = ?
		ORDER BY eval_date DESC
	`, model, problem)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query model history: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var evalDateMS int64
		if err := rows.Scan(
			&e.ID,
			&e.Model,
			&e.Backend,
			&e.PromptMode,
			&e.Problem,
			&e.Seed,
			&e.Accuracy,
			&e.Correct,
			&e.Answered,
			&e.Total,
			&e.PromptTokens,
			&e.CachedTokens,
			&e.CompletionTokens,
			&evalDateMS,
		); err != nil {
			return nil, fmt.Errorf("leaderboard: scan run: %w", err)
		}
		e.EvalDate = time.UnixMilli(evalDateMS).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: scan rows: %w", err)
	}
	return out, nil
}
