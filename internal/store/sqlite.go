// Package store persists decision history and operator feedback in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/opsmesh/sre-agent/internal/models"
	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO required
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
    correlation_id     TEXT PRIMARY KEY,
    namespace          TEXT NOT NULL DEFAULT '',
    resource_name      TEXT NOT NULL DEFAULT '',
    resource_kind      TEXT NOT NULL DEFAULT '',
    decision           TEXT NOT NULL,
    confidence         REAL NOT NULL DEFAULT 0.0,
    reasoning          TEXT NOT NULL DEFAULT '',
    termination_reason TEXT NOT NULL DEFAULT '',
    issue_types        TEXT NOT NULL DEFAULT '',
    created_at         DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_namespace  ON decisions(namespace, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at DESC);

CREATE TABLE IF NOT EXISTS feedback (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    correlation_id TEXT NOT NULL REFERENCES decisions(correlation_id) ON DELETE CASCADE,
    correct        BOOLEAN NOT NULL,
    notes          TEXT NOT NULL DEFAULT '',
    submitted_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_correlation ON feedback(correlation_id);
`

const defaultListLimit = 50

// SQLiteStore is the decision audit trail. Pass ":memory:" to Open for an
// in-memory store.
type SQLiteStore struct {
	db *sql.DB
}

func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// StoreDecision upserts one decision row keyed by correlation id.
func (s *SQLiteStore) StoreDecision(ctx context.Context, rec models.DecisionRecord) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO decisions(correlation_id, namespace, resource_name, resource_kind,
                              decision, confidence, reasoning, termination_reason, issue_types, created_at)
        VALUES(?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(correlation_id) DO UPDATE SET
            decision           = excluded.decision,
            confidence         = excluded.confidence,
            reasoning          = excluded.reasoning,
            termination_reason = excluded.termination_reason,
            issue_types        = excluded.issue_types
    `,
		rec.CorrelationID, rec.Namespace, rec.ResourceName, rec.ResourceKind,
		string(rec.Decision), rec.Confidence, rec.Reasoning, rec.TerminationReason,
		strings.Join(rec.IssueTypes, ","), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("store decision %s: %w", rec.CorrelationID, err)
	}
	return nil
}

// ListDecisions returns decisions newest first, filtered by the request's
// namespace and since bounds.
func (s *SQLiteStore) ListDecisions(ctx context.Context, req models.ListDecisionsRequest) ([]models.DecisionRecord, error) {
	query := `SELECT correlation_id, namespace, resource_name, resource_kind,
                     decision, confidence, reasoning, termination_reason, issue_types, created_at
              FROM decisions`
	var conds []string
	var args []any
	if req.Namespace != "" {
		conds = append(conds, "namespace = ?")
		args = append(args, req.Namespace)
	}
	if !req.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, req.Since.UTC())
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var records []models.DecisionRecord
	for rows.Next() {
		var rec models.DecisionRecord
		var decision, issueTypes, createdAt string
		if err := rows.Scan(&rec.CorrelationID, &rec.Namespace, &rec.ResourceName, &rec.ResourceKind,
			&decision, &rec.Confidence, &rec.Reasoning, &rec.TerminationReason, &issueTypes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec.Decision = models.Decision(decision)
		if issueTypes != "" {
			rec.IssueTypes = strings.Split(issueTypes, ",")
		}
		rec.CreatedAt, _ = parseTime(createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// HasDecision reports whether a decision with this correlation id exists.
func (s *SQLiteStore) HasDecision(ctx context.Context, correlationID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM decisions WHERE correlation_id = ?`, correlationID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check decision %s: %w", correlationID, err)
	}
	return count > 0, nil
}

// StoreFeedback appends an operator verdict for an existing decision.
func (s *SQLiteStore) StoreFeedback(ctx context.Context, fb models.Feedback) error {
	submittedAt := fb.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback(correlation_id, correct, notes, submitted_at) VALUES(?,?,?,?)`,
		fb.CorrelationID, fb.Correct, fb.Notes, submittedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("store feedback for %s: %w", fb.CorrelationID, err)
	}
	return nil
}

// parseTime handles the datetime formats SQLite may hand back.
func parseTime(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}
