package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tickerbench/tickerbench/models"
)

// Store persists benchmark runs so past artifacts survive the process.
// One row per run, one row per score result.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the run database under the results directory.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	summary    TEXT NOT NULL,
	passed     INTEGER NOT NULL,
	scored     INTEGER NOT NULL,
	total      INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS score_results (
	run_id           TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq              INTEGER NOT NULL,
	ticker           TEXT NOT NULL,
	agent_verdict    TEXT NOT NULL,
	agent_confidence REAL NOT NULL,
	truth_increase   INTEGER NOT NULL,
	status           TEXT NOT NULL,
	rationale        TEXT NOT NULL,
	evidence_checked INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveArtifact records one finished run with its ordered results.
func (s *Store) SaveArtifact(ctx context.Context, artifact *models.ResultArtifact) error {
	summaryJSON, err := json.Marshal(artifact.SummaryText)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, summary, passed, scored, total) VALUES (?, ?, ?, ?, ?)`,
		artifact.RunID, string(summaryJSON),
		artifact.Summary.Passed, artifact.Summary.Scored, artifact.Summary.Total,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", artifact.RunID, err)
	}

	for i, r := range artifact.Results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO score_results
			 (run_id, seq, ticker, agent_verdict, agent_confidence, truth_increase, status, rationale, evidence_checked)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			artifact.RunID, i, r.Ticker, string(r.AgentOutcome), r.AgentConfidence,
			r.ActualIncrease, string(r.Status), r.Rationale, r.EvidenceChecked,
		); err != nil {
			return fmt.Errorf("insert result %s/%s: %w", artifact.RunID, r.Ticker, err)
		}
	}

	return tx.Commit()
}

// LoadArtifact reads a saved run back, results in original order.
func (s *Store) LoadArtifact(ctx context.Context, runID string) (*models.ResultArtifact, error) {
	artifact := &models.ResultArtifact{RunID: runID}

	var summaryJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT summary, passed, scored, total FROM runs WHERE run_id = ?`, runID,
	).Scan(&summaryJSON, &artifact.Summary.Passed, &artifact.Summary.Scored, &artifact.Summary.Total)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &artifact.SummaryText); err != nil {
		return nil, fmt.Errorf("decode summary for %s: %w", runID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, agent_verdict, agent_confidence, truth_increase, status, rationale, evidence_checked
		 FROM score_results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("load results for %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.ScoreResult
		var outcome, status string
		if err := rows.Scan(&r.Ticker, &outcome, &r.AgentConfidence, &r.ActualIncrease,
			&status, &r.Rationale, &r.EvidenceChecked); err != nil {
			return nil, fmt.Errorf("scan result for %s: %w", runID, err)
		}
		r.AgentOutcome = models.Outcome(outcome)
		r.Status = models.Status(status)
		artifact.Results = append(artifact.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results for %s: %w", runID, err)
	}

	return artifact, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
