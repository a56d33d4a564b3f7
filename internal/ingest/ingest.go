// Package ingest copies sheet rows into an accumulator in bounded chunks,
// reporting progress and yielding to the host between chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"invoice-dashboard/internal/models"
	"invoice-dashboard/pkg/logger"
)

// ErrTicksClosed is returned when a TickYielder's channel closes mid-ingestion
var ErrTicksClosed = errors.New("ingest: tick channel closed")

// ProgressFunc receives the completed share of the sheet, 0 to 100
type ProgressFunc func(percent float64)

// RowSource yields the rows of one sheet. Row extraction may fail, for
// example when the underlying workbook is truncated.
type RowSource interface {
	Len() int
	Row(i int) (models.RawRow, error)
}

// SliceSource adapts already-extracted rows to RowSource
type SliceSource []models.RawRow

// Len implements RowSource
func (s SliceSource) Len() int { return len(s) }

// Row implements RowSource
func (s SliceSource) Row(i int) (models.RawRow, error) { return s[i], nil }

// Ingestor processes sheets chunk by chunk. Each call owns its accumulator,
// so one Ingestor may serve sequential or independent runs.
type Ingestor struct {
	config  *Config
	yielder Yielder
	logger  logger.Logger
}

// NewIngestor creates an ingestor. A nil config uses DefaultConfig and a nil
// yielder uses SchedulerYielder.
func NewIngestor(config *Config, yielder Yielder, log logger.Logger) (*Ingestor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ingest configuration: %w", err)
	}
	if yielder == nil {
		yielder = SchedulerYielder{}
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Ingestor{
		config:  config,
		yielder: yielder,
		logger:  log.WithComponent("ingest"),
	}, nil
}

// ChunkSize returns the configured chunk size
func (in *Ingestor) ChunkSize() int {
	return in.config.ChunkSize
}

// Ingest copies rows into a fresh slice chunk by chunk
func (in *Ingestor) Ingest(ctx context.Context, rows []models.RawRow, onProgress ProgressFunc) ([]models.RawRow, error) {
	return in.IngestSource(ctx, SliceSource(rows), onProgress)
}

// IngestSource extracts every row of source. Progress is reported after each
// chunk as min(100, processed/total*100); the next chunk starts only after
// the callback returns. An empty source reports 100 once. On failure the
// original error is returned with no partial result.
func (in *Ingestor) IngestSource(ctx context.Context, source RowSource, onProgress ProgressFunc) ([]models.RawRow, error) {
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	total := source.Len()
	if total == 0 {
		onProgress(100)
		return []models.RawRow{}, nil
	}

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "ingest",
		Total:     int64(total),
		Logger:    in.logger,
	})

	chunk := in.config.ChunkSize
	result := make([]models.RawRow, 0, total)

	for start := 0; start < total; start += chunk {
		if err := ctx.Err(); err != nil {
			tracker.CompleteWithError(err)
			return nil, err
		}

		end := start + chunk
		if end > total {
			end = total
		}

		for i := start; i < end; i++ {
			row, err := source.Row(i)
			if err != nil {
				tracker.CompleteWithError(err)
				return nil, err
			}
			result = append(result, row)
		}

		tracker.Update(int64(end))
		onProgress(logger.Percent(int64(end), int64(total)))

		if end < total {
			if err := in.yielder.Yield(ctx); err != nil {
				tracker.CompleteWithError(err)
				return nil, err
			}
		}
	}

	tracker.Complete()
	return result, nil
}
