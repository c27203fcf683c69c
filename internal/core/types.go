package core

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/JonMunkholm/sheetsections/internal/extract"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNoFile is returned when an upload carries no file body.
	ErrNoFile = errors.New("no file provided")

	// ErrFileTooLarge is returned when an upload exceeds Upload.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrExtractionTimeout is returned when an extraction exceeds Upload.Timeout.
	ErrExtractionTimeout = errors.New("extraction timed out")

	// ErrExtractionNotFound is returned for unknown or malformed extraction IDs.
	ErrExtractionNotFound = errors.New("extraction not found")
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// UploadRequest is one file handed to the service.
type UploadRequest struct {
	FileName string
	Size     int64 // Declared size; 0 if unknown
	Body     io.Reader
}

// Extraction is a completed extraction and its stored history record.
type Extraction struct {
	ID         string            `json:"id"`
	FileName   string            `json:"fileName"`
	FileSize   int64             `json:"fileSize"`
	Sections   []extract.Section `json:"sections"`
	Stats      extract.Stats     `json:"stats"`
	DurationMS int64             `json:"durationMs"`
	IPAddress  string            `json:"ipAddress,omitempty"`
	UserAgent  string            `json:"userAgent,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// ExtractionSummary is the list view of an Extraction, without sections.
type ExtractionSummary struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	FileSize     int64     `json:"fileSize"`
	SectionCount int       `json:"sectionCount"`
	ProductCount int       `json:"productCount"`
	SkippedRows  int       `json:"skippedRows"`
	DanglingRows int       `json:"danglingRows"`
	DurationMS   int64     `json:"durationMs"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary returns the list view of e.
func (e *Extraction) Summary() ExtractionSummary {
	return ExtractionSummary{
		ID:           e.ID,
		FileName:     e.FileName,
		FileSize:     e.FileSize,
		SectionCount: len(e.Sections),
		ProductCount: e.Stats.Products,
		SkippedRows:  e.Stats.SkippedTotal(),
		DanglingRows: e.Stats.Dangling,
		DurationMS:   e.DurationMS,
		CreatedAt:    e.CreatedAt,
	}
}
