package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/sheetsections/internal/config"
	"github.com/JonMunkholm/sheetsections/internal/extract"
	"github.com/JonMunkholm/sheetsections/internal/logging"
	"github.com/JonMunkholm/sheetsections/internal/metrics"
	"github.com/google/uuid"
)

// DefaultExtractTimeout bounds a single extraction when no timeout is configured.
const DefaultExtractTimeout = 30 * time.Second

// Service runs uploads through the extractor and keeps their history.
type Service struct {
	store     HistoryStore
	extractor *extract.Extractor
	limiter   *UploadLimiter

	maxFileSize int64
	timeout     time.Duration
}

// NewService creates a Service. A nil extractor uses the default HTML parser.
func NewService(store HistoryStore, extractor *extract.Extractor, cfg config.UploadConfig) (*Service, error) {
	if store == nil {
		return nil, errors.New("history store is required")
	}
	if extractor == nil {
		extractor = extract.New(nil)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}

	return &Service{
		store:       store,
		extractor:   extractor,
		limiter:     NewUploadLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		maxFileSize: cfg.MaxFileSize,
		timeout:     timeout,
	}, nil
}

type extractOutcome struct {
	result *extract.Result
	err    error
}

// ExtractUpload extracts the sections from one uploaded file and records the
// extraction in history.
//
// The extractor has no cancellation points, so it runs on its own goroutine
// and the caller stops waiting after the configured timeout. The upload slot
// stays held until that goroutine finishes.
func (s *Service) ExtractUpload(ctx context.Context, req UploadRequest) (*Extraction, error) {
	start := time.Now()
	log := logging.WithFields(ctx, "file", req.FileName)

	if req.Body == nil {
		metrics.RecordExtraction(metrics.StatusRejected, time.Since(start))
		return nil, ErrNoFile
	}
	if s.maxFileSize > 0 && req.Size > s.maxFileSize {
		metrics.RecordExtraction(metrics.StatusRejected, time.Since(start))
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, req.Size, s.maxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		metrics.RecordExtraction(metrics.StatusRejected, time.Since(start))
		return nil, err
	}

	body := NewCountingReader(req.Body, s.maxFileSize)
	done := make(chan extractOutcome, 1)
	go func() {
		defer s.limiter.Release()
		res, err := s.extractor.Run(body)
		done <- extractOutcome{result: res, err: err}
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var out extractOutcome
	select {
	case out = <-done:
	case <-runCtx.Done():
		metrics.RecordExtraction(metrics.StatusTimeout, time.Since(start))
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Warn("extraction timed out", "timeout", s.timeout)
		return nil, fmt.Errorf("%w after %s", ErrExtractionTimeout, s.timeout)
	}

	elapsed := time.Since(start)
	metrics.UploadBytes.Add(float64(body.BytesRead))

	if out.err != nil {
		status := metrics.StatusParseError
		if errors.Is(out.err, ErrFileTooLarge) {
			status = metrics.StatusRejected
		}
		metrics.RecordExtraction(status, elapsed)
		log.Info("extraction failed", "error", out.err, "bytes", body.BytesRead)
		return nil, fmt.Errorf("extract %s: %w", req.FileName, out.err)
	}

	res := out.result
	e := &Extraction{
		ID:         uuid.NewString(),
		FileName:   req.FileName,
		FileSize:   body.BytesRead,
		Sections:   res.Sections,
		Stats:      res.Stats,
		DurationMS: elapsed.Milliseconds(),
		IPAddress:  IPAddressFromContext(ctx),
		UserAgent:  UserAgentFromContext(ctx),
		CreatedAt:  time.Now().UTC(),
	}

	recordStats(res)
	metrics.RecordExtraction(metrics.StatusOK, elapsed)

	if res.Stats.Dangling > 0 {
		log.Warn("discarded products with no closing Total: row",
			"extraction_id", e.ID,
			"dangling", res.Stats.Dangling,
		)
	}

	// History is best effort; the caller still gets its sections.
	if err := s.store.Save(ctx, e); err != nil {
		log.Error("save extraction history", "extraction_id", e.ID, "error", err)
	}

	log.Info("extraction completed",
		"extraction_id", e.ID,
		"sections", len(e.Sections),
		"products", res.Stats.Products,
		"skipped", res.Stats.SkippedTotal(),
		"bytes", e.FileSize,
		"duration_ms", e.DurationMS,
	)

	return e, nil
}

// recordStats feeds one successful pass into the extraction counters.
func recordStats(res *extract.Result) {
	metrics.SectionsExtracted.Add(float64(len(res.Sections)))
	metrics.ProductsExtracted.Add(float64(res.Stats.Products))
	metrics.DanglingProducts.Add(float64(res.Stats.Dangling))
	for reason, n := range res.Stats.Skipped {
		metrics.RowsSkipped.WithLabelValues(string(reason)).Add(float64(n))
	}
}

// GetExtraction returns one stored extraction.
func (s *Service) GetExtraction(ctx context.Context, id string) (*Extraction, error) {
	return s.store.Get(ctx, id)
}

// ListExtractions returns the most recent extractions, newest first.
func (s *Service) ListExtractions(ctx context.Context, limit int) ([]ExtractionSummary, error) {
	return s.store.List(ctx, limit)
}

// UploadLimiterStatus returns a snapshot of upload slot usage.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight extractions finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	if active := s.limiter.ActiveCount(); active > 0 {
		slog.Info("waiting for active uploads", "active", active)
	}
	return s.limiter.WaitForDrain(ctx)
}
