package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// historySchema creates the extractions table. Safe to run on every start.
const historySchema = `
CREATE TABLE IF NOT EXISTS extractions (
    id            UUID PRIMARY KEY,
    file_name     TEXT NOT NULL,
    file_size     BIGINT NOT NULL,
    section_count INTEGER NOT NULL,
    product_count INTEGER NOT NULL,
    skipped_rows  INTEGER NOT NULL,
    dangling_rows INTEGER NOT NULL,
    sections      JSONB NOT NULL,
    stats         JSONB NOT NULL,
    duration_ms   BIGINT NOT NULL,
    ip_address    TEXT,
    user_agent    TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS extractions_created_at_idx ON extractions (created_at DESC);
`

// PostgresStore is a HistoryStore backed by PostgreSQL.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store on db (usually a *pgxpool.Pool).
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the history table and index if they do not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, historySchema); err != nil {
		return fmt.Errorf("create extractions table: %w", err)
	}
	return nil
}

// Save implements HistoryStore.
func (p *PostgresStore) Save(ctx context.Context, e *Extraction) error {
	sections, err := json.Marshal(e.Sections)
	if err != nil {
		return fmt.Errorf("encode sections: %w", err)
	}
	stats, err := json.Marshal(e.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	s := e.Summary()
	_, err = p.db.Exec(ctx, `
		INSERT INTO extractions (
			id, file_name, file_size, section_count, product_count, skipped_rows,
			dangling_rows, sections, stats, duration_ms, ip_address, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.FileName, e.FileSize, s.SectionCount, s.ProductCount, s.SkippedRows,
		s.DanglingRows, string(sections), string(stats), e.DurationMS,
		toPgText(e.IPAddress), toPgText(e.UserAgent), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction %s: %w", e.ID, err)
	}
	return nil
}

// Get implements HistoryStore.
func (p *PostgresStore) Get(ctx context.Context, id string) (*Extraction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrExtractionNotFound
	}

	var (
		e                 Extraction
		sections, stats   []byte
		ipAddr, userAgent pgtype.Text
	)
	err := p.db.QueryRow(ctx, `
		SELECT id::text, file_name, file_size, sections, stats, duration_ms,
		       ip_address, user_agent, created_at
		FROM extractions
		WHERE id = $1`, id,
	).Scan(&e.ID, &e.FileName, &e.FileSize, &sections, &stats, &e.DurationMS,
		&ipAddr, &userAgent, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExtractionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select extraction %s: %w", id, err)
	}

	if err := json.Unmarshal(sections, &e.Sections); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	if err := json.Unmarshal(stats, &e.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	e.IPAddress = ipAddr.String
	e.UserAgent = userAgent.String

	return &e, nil
}

// List implements HistoryStore.
func (p *PostgresStore) List(ctx context.Context, limit int) ([]ExtractionSummary, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id::text, file_name, file_size, section_count, product_count,
		       skipped_rows, dangling_rows, duration_ms, created_at
		FROM extractions
		ORDER BY created_at DESC
		LIMIT $1`, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ExtractionSummary, error) {
		var s ExtractionSummary
		err := row.Scan(&s.ID, &s.FileName, &s.FileSize, &s.SectionCount, &s.ProductCount,
			&s.SkippedRows, &s.DanglingRows, &s.DurationMS, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan extractions: %w", err)
	}
	return out, nil
}

// Prune implements HistoryStore.
func (p *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM extractions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune extractions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// toPgText converts a string to pgtype.Text; empty strings become NULL.
func toPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
