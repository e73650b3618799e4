// Package repo provides database repositories
package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"mission-control/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the repositories
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// JournalRepo records how panel loads resolved. It stores outcomes only,
// never the fetched payloads.
type JournalRepo struct {
	db DB
}

// NewJournalRepo creates a new journal repository
func NewJournalRepo(db DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Record inserts one resolved load
func (r *JournalRepo) Record(ctx context.Context, rec domain.FetchRecord) error {
	query, err := json.Marshal(rec.Query)
	if err != nil {
		return fmt.Errorf("failed to marshal journal query: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO fetch_journal(id, panel, query, outcome, message, photo_count, started_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.ID, string(rec.Panel), query, string(rec.Outcome), rec.Message, rec.PhotoCount, rec.StartedAt, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// Recent lists the latest journal entries, newest first
func (r *JournalRepo) Recent(ctx context.Context, limit int) ([]domain.FetchRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, panel, query, outcome, message, photo_count, started_at, completed_at
		FROM fetch_journal ORDER BY completed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	items := []domain.FetchRecord{}
	for rows.Next() {
		var (
			rec     domain.FetchRecord
			panel   string
			outcome string
			query   json.RawMessage
		)
		if err := rows.Scan(&rec.ID, &panel, &query, &outcome, &rec.Message, &rec.PhotoCount, &rec.StartedAt, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		rec.Panel = domain.Panel(panel)
		rec.Outcome = domain.Outcome(outcome)
		rec.Query = query
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal rows: %w", err)
	}
	return items, nil
}

// InitDB initializes database tables
func InitDB(ctx context.Context, db DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS fetch_journal(
			id UUID PRIMARY KEY,
			panel TEXT NOT NULL,
			query JSONB NOT NULL,
			outcome TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			photo_count INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS ix_fetch_journal_completed
		 ON fetch_journal(completed_at DESC)`,
		`CREATE INDEX IF NOT EXISTS ix_fetch_journal_panel
		 ON fetch_journal(panel, completed_at DESC)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
