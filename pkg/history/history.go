// Package history persists a per-scan audit row. Optional: a nil *Log is
// inert, so deployments without Postgres skip it without branching.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_history (
	id               BIGSERIAL PRIMARY KEY,
	session_id       TEXT        NOT NULL,
	source_url       TEXT        NOT NULL,
	legitimacy_score INT         NOT NULL,
	verdict          TEXT        NOT NULL,
	model_tier       TEXT,
	used_fallback    BOOLEAN     NOT NULL DEFAULT FALSE,
	scanned_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scan_history_session_idx ON scan_history (session_id, scanned_at DESC);
`

// Entry is one persisted scan record.
type Entry struct {
	SessionID       string    `json:"session_id"`
	SourceURL       string    `json:"source_url"`
	LegitimacyScore int       `json:"legitimacy_score"`
	Verdict         string    `json:"verdict"`
	ModelTier       *string   `json:"model_tier"`
	UsedFallback    bool      `json:"used_fallback"`
	ScannedAt       time.Time `json:"scanned_at"`
}

// Log writes scan records to Postgres.
type Log struct {
	pool *pgxpool.Pool
}

// Open connects, verifies the connection, and ensures the schema exists.
func Open(ctx context.Context, databaseURL string) (*Log, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect history database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}
	return &Log{pool: pool}, nil
}

// Record appends one scan row. Nil receivers are a no-op.
func (l *Log) Record(ctx context.Context, sessionID, verdict string, result *snapshot.ScanResult) error {
	if l == nil {
		return nil
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO scan_history
			(session_id, source_url, legitimacy_score, verdict, model_tier, used_fallback, scanned_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sessionID, result.SourceURL, result.LegitimacyScore, verdict,
		result.ModelTierUsed, result.UsedFallbackClassifier, result.Timestamp)
	if err != nil {
		return fmt.Errorf("record scan: %w", err)
	}
	return nil
}

// Recent returns the latest entries for a session, newest first.
func (l *Log) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if l == nil {
		return nil, nil
	}
	rows, err := l.pool.Query(ctx,
		`SELECT session_id, source_url, legitimacy_score, verdict, model_tier, used_fallback, scanned_at
		 FROM scan_history
		 WHERE session_id = $1
		 ORDER BY scanned_at DESC
		 LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SessionID, &e.SourceURL, &e.LegitimacyScore,
			&e.Verdict, &e.ModelTier, &e.UsedFallback, &e.ScannedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the pool. Nil receivers are a no-op.
func (l *Log) Close() {
	if l != nil {
		l.pool.Close()
	}
}
