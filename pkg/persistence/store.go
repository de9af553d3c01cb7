// Package persistence provides SQLite-backed debate history storage and
// JSON session log export.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"conclave/pkg/config"
	"conclave/pkg/debate"
	"conclave/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    created_at  TEXT NOT NULL,
    query       TEXT NOT NULL,
    instances   INTEGER NOT NULL,
    rounds      INTEGER NOT NULL,
    models      TEXT NOT NULL,
    strategy    TEXT NOT NULL,
    answer      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS turns (
    run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq     INTEGER NOT NULL,
    model   TEXT NOT NULL,
    round   INTEGER NOT NULL,
    failed  INTEGER NOT NULL DEFAULT 0,
    content TEXT NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_turns_run ON turns(run_id);
`

// Store persists completed debate runs.
type Store struct {
	db  *sql.DB
	log *logx.Logger
}

// RunRecord is one stored debate run.
//
//nolint:govet // fieldalignment: column order preferred
type RunRecord struct {
	ID        string
	CreatedAt time.Time
	Query     string
	Instances int
	Rounds    int
	Models    []string
	Strategy  string
	Answer    string
}

// Open opens (creating if necessary) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db, log: logx.NewLogger("persistence")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	return nil
}

// SaveRun stores a finished debate session and returns its run ID.
func (s *Store) SaveRun(ctx context.Context, cfg config.RunConfig, session *debate.Session, answer string) (string, error) {
	runID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, query, instances, rounds, models, strategy, answer)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		time.Now().UTC().Format(time.RFC3339),
		session.Query,
		cfg.Instances,
		cfg.Rounds,
		strings.Join(cfg.Models, ","),
		string(cfg.ContextStrategy),
		answer,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i := range session.Transcript {
		e := &session.Transcript[i]
		failed := 0
		if e.Failed {
			failed = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO turns (run_id, seq, model, round, failed, content)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, i, e.Model, e.Round, failed, e.Content,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	s.log.Debug("saved run %s (%d turns)", runID, len(session.Transcript))
	return runID, nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, query, instances, rounds, models, strategy, answer
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []RunRecord
	for rows.Next() {
		var (
			rec       RunRecord
			createdAt string
			models    string
		)
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Query, &rec.Instances,
			&rec.Rounds, &models, &rec.Strategy, &rec.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if models != "" {
			rec.Models = strings.Split(models, ",")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return records, nil
}

// Transcript loads the stored transcript for a run, in turn order.
func (s *Store) Transcript(ctx context.Context, runID string) ([]debate.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model, round, failed, content FROM turns WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []debate.Entry
	for rows.Next() {
		var (
			e      debate.Entry
			failed int
		)
		if err := rows.Scan(&e.Model, &e.Round, &failed, &e.Content); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		e.Failed = failed != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}
	return entries, nil
}

// sessionDocument is the JSON shape written by ExportJSON.
type sessionDocument struct {
	Timestamp  string         `json:"timestamp"`
	Query      string         `json:"query"`
	Instances  int            `json:"instances"`
	Rounds     int            `json:"rounds"`
	Models     []string       `json:"models"`
	Strategy   string         `json:"strategy"`
	Transcript []debate.Entry `json:"transcript"`
	Answer     string         `json:"final_answer"`
}

// MarshalSessionJSON renders a finished session as an indented JSON document
// suitable for a per-debate log file.
func MarshalSessionJSON(cfg config.RunConfig, session *debate.Session, answer string, now time.Time) ([]byte, error) {
	doc := sessionDocument{
		Timestamp:  now.UTC().Format(time.RFC3339),
		Query:      session.Query,
		Instances:  cfg.Instances,
		Rounds:     cfg.Rounds,
		Models:     cfg.Models,
		Strategy:   string(cfg.ContextStrategy),
		Transcript: session.Transcript,
		Answer:     answer,
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session log: %w", err)
	}
	return append(payload, '\n'), nil
}
