// Package store handles SQLite persistence of screening history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/neuroscreen/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for history data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trial_sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			total INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			reaction_time_sum_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trial_ink_stats (
			session_id INTEGER NOT NULL,
			ink TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			latency_sum_ms INTEGER NOT NULL,
			latency_count INTEGER NOT NULL,
			PRIMARY KEY (session_id, ink)
		);`,
		`CREATE TABLE IF NOT EXISTS facial_runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			sample_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS facial_run_means (
			run_id INTEGER NOT NULL,
			metric TEXT NOT NULL,
			mean REAL NOT NULL,
			PRIMARY KEY (run_id, metric)
		);`,
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			overall_score REAL NOT NULL,
			level TEXT NOT NULL,
			modalities TEXT NOT NULL,
			pauses INTEGER NOT NULL,
			repetitions INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trial_sessions_ended_at ON trial_sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_facial_runs_ended_at ON facial_runs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertTrialSession stores a completed Stroop session and its per-ink stats.
func (s *Store) InsertTrialSession(ctx context.Context, res model.TrialResult, trials []model.Trial, inks []model.InkAggregate) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var rtSum int64
	for _, tr := range trials {
		rtSum += tr.ReactionTimeMs
	}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO trial_sessions (started_at, ended_at, total, correct, reaction_time_sum_ms)
		 VALUES (?, ?, ?, ?, ?)`,
		res.StartedAt.Format(time.RFC3339Nano),
		res.EndedAt.Format(time.RFC3339Nano),
		res.Total,
		res.Correct,
		rtSum,
	)
	if err != nil {
		return 0, err
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(inks) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO trial_ink_stats (session_id, ink, correct, incorrect, latency_sum_ms, latency_count)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, agg := range inks {
			if _, err = stmt.ExecContext(ctx, id, agg.Ink, agg.Correct, agg.Incorrect, agg.LatencySumMs, agg.LatencyCount); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns trial session aggregates filtered by stats config.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, total, correct, reaction_time_sum_ms
		FROM trial_sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &endedAt, &agg.Total, &agg.Correct, &agg.ReactionTimeSumMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListInkAggregatesForSessions aggregates per-ink stats across sessions.
func (s *Store) ListInkAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.InkAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(sessionIDs)
	query := fmt.Sprintf(`SELECT ink, SUM(correct) AS correct, SUM(incorrect) AS incorrect,
		SUM(latency_sum_ms) AS latency_sum_ms, SUM(latency_count) AS latency_count
		FROM trial_ink_stats
		WHERE session_id IN (%s)
		GROUP BY ink
		ORDER BY ink`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.InkAggregate
	for rows.Next() {
		var agg model.InkAggregate
		if err := rows.Scan(&agg.Ink, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertFacialRun stores a facial sampling summary.
func (s *Store) InsertFacialRun(ctx context.Context, run model.FacialRun) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO facial_runs (started_at, ended_at, sample_count) VALUES (?, ?, ?)`,
		run.StartedAt.Format(time.RFC3339Nano),
		run.EndedAt.Format(time.RFC3339Nano),
		run.Summary.SampleCount,
	)
	if err != nil {
		return 0, err
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, err
	}
	for metric, mean := range run.Summary.Means {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO facial_run_means (run_id, metric, mean) VALUES (?, ?, ?)`,
			id, metric, mean,
		); err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListFacialRuns returns stored facial runs in chronological order.
func (s *Store) ListFacialRuns(ctx context.Context, cfg model.StatsConfig) ([]model.FacialRun, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "r.ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT r.id, r.started_at, r.ended_at, r.sample_count, m.metric, m.mean
		FROM facial_runs r
		LEFT JOIN facial_run_means m ON m.run_id = r.id
		WHERE %s
		ORDER BY r.ended_at ASC, r.id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var runs []model.FacialRun
	for rows.Next() {
		var (
			id                 int64
			startedAt, endedAt string
			count              int
			metric             sql.NullString
			mean               sql.NullFloat64
		)
		if err := rows.Scan(&id, &startedAt, &endedAt, &count, &metric, &mean); err != nil {
			return nil, err
		}
		if len(runs) == 0 || runs[len(runs)-1].RunID != id {
			started, err := time.Parse(time.RFC3339Nano, startedAt)
			if err != nil {
				return nil, err
			}
			ended, err := time.Parse(time.RFC3339Nano, endedAt)
			if err != nil {
				return nil, err
			}
			runs = append(runs, model.FacialRun{
				RunID:     id,
				StartedAt: started,
				EndedAt:   ended,
				Summary:   model.SummaryStatistics{SampleCount: count},
			})
		}
		if metric.Valid {
			run := &runs[len(runs)-1]
			if run.Summary.Means == nil {
				run.Summary.Means = map[string]float64{}
			}
			run.Summary.Means[metric.String] = mean.Float64
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// InsertReport stores a report headline.
func (s *Store) InsertReport(ctx context.Context, rec model.ReportRecord) error {
	modalities := make([]string, len(rec.Modalities))
	for i, m := range rec.Modalities {
		modalities[i] = string(m)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, overall_score, level, modalities, pauses, repetitions)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.OverallScore,
		string(rec.Level),
		strings.Join(modalities, ","),
		rec.Pauses,
		rec.Repetitions,
	)
	return err
}

// ListReports returns stored report headlines in chronological order.
func (s *Store) ListReports(ctx context.Context, cfg model.StatsConfig) ([]model.ReportRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, created_at, overall_score, level, modalities, pauses, repetitions
		FROM reports
		WHERE %s
		ORDER BY created_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var records []model.ReportRecord
	for rows.Next() {
		var rec model.ReportRecord
		var createdAt, level, modalities string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.OverallScore, &level, &modalities, &rec.Pauses, &rec.Repetitions); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		rec.Level = model.Level(level)
		if modalities != "" {
			for _, m := range strings.Split(modalities, ",") {
				rec.Modalities = append(rec.Modalities, model.Modality(m))
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
