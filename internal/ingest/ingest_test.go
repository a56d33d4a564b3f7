package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"invoice-dashboard/internal/models"
	"invoice-dashboard/pkg/logger"
)

func newTestIngestor(t *testing.T, chunk int, y Yielder) *Ingestor {
	t.Helper()
	in, err := NewIngestor(&Config{ChunkSize: chunk}, y, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return in
}

func makeRows(n int) []models.RawRow {
	rows := make([]models.RawRow, n)
	for i := range rows {
		rows[i] = models.RawRow{"id": fmt.Sprint(i)}
	}
	return rows
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   int
		wantErr bool
	}{
		{"default", DefaultChunkSize, false},
		{"one", 1, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Config{ChunkSize: tt.chunk}).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewIngestor(&Config{ChunkSize: 0}, nil, logger.NewNopLogger()); err == nil {
		t.Error("expected NewIngestor to reject an invalid config")
	}
}

func TestIngestEmpty(t *testing.T) {
	in := newTestIngestor(t, 500, NoopYielder{})

	var calls []float64
	rows, err := in.Ingest(context.Background(), nil, func(p float64) { calls = append(calls, p) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil result, got %v", rows)
	}
	if len(calls) != 1 || calls[0] != 100 {
		t.Errorf("expected exactly one progress call of 100, got %v", calls)
	}
}

func TestIngestProgressIsMonotonic(t *testing.T) {
	in := newTestIngestor(t, 500, NoopYielder{})
	input := makeRows(1200)

	var calls []float64
	rows, err := in.Ingest(context.Background(), input, func(p float64) { calls = append(calls, p) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rows) != 1200 {
		t.Fatalf("expected 1200 rows, got %d", len(rows))
	}
	for i := range input {
		if rows[i]["id"] != input[i]["id"] {
			t.Fatalf("row %d out of order", i)
		}
	}

	want := []float64{500.0 / 1200 * 100, 1000.0 / 1200 * 100, 100}
	if len(calls) != len(want) {
		t.Fatalf("expected %d progress calls, got %v", len(want), calls)
	}
	for i := range want {
		if math.Abs(calls[i]-want[i]) > 1e-9 {
			t.Errorf("call %d = %v, want %v", i, calls[i], want[i])
		}
		if i > 0 && calls[i] < calls[i-1] {
			t.Errorf("progress decreased: %v", calls)
		}
		if i < len(want)-1 && calls[i] >= 100 {
			t.Errorf("progress reached 100 before the last chunk: %v", calls)
		}
	}
}

type countingYielder struct{ n int }

func (y *countingYielder) Yield(ctx context.Context) error {
	y.n++
	return nil
}

func TestIngestYieldsBetweenChunksOnly(t *testing.T) {
	y := &countingYielder{}
	in := newTestIngestor(t, 500, y)

	if _, err := in.Ingest(context.Background(), makeRows(1500), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if y.n != 2 {
		t.Errorf("expected 2 yields for 3 chunks, got %d", y.n)
	}
}

type failingSource struct {
	n      int
	failAt int
	err    error
}

func (s failingSource) Len() int { return s.n }

func (s failingSource) Row(i int) (models.RawRow, error) {
	if i == s.failAt {
		return nil, s.err
	}
	return models.RawRow{"id": fmt.Sprint(i)}, nil
}

func TestIngestSourceFailureReturnsOriginalError(t *testing.T) {
	in := newTestIngestor(t, 10, NoopYielder{})
	cause := errors.New("truncated sheet")

	var calls int
	rows, err := in.IngestSource(context.Background(), failingSource{n: 50, failAt: 25, err: cause}, func(float64) { calls++ })
	if err != cause {
		t.Fatalf("expected original error, got %v", err)
	}
	if rows != nil {
		t.Errorf("expected no partial result, got %d rows", len(rows))
	}
	if calls != 2 {
		t.Errorf("expected progress for the two completed chunks, got %d calls", calls)
	}
}

func TestIngestCancelledBetweenChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := newTestIngestor(t, 100, NoopYielder{})

	rows, err := in.Ingest(ctx, makeRows(300), func(p float64) {
		if p > 30 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rows != nil {
		t.Error("expected no partial result after cancellation")
	}
}

func TestTickYielder(t *testing.T) {
	ticks := make(chan struct{})
	in := newTestIngestor(t, 2, TickYielder{C: ticks})

	done := make(chan error, 1)
	var got []models.RawRow
	go func() {
		var err error
		got, err = in.Ingest(context.Background(), makeRows(6), nil)
		done <- err
	}()

	// Three chunks need two ticks.
	ticks <- struct{}{}
	ticks <- struct{}{}

	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 6 {
		t.Errorf("expected 6 rows, got %d", len(got))
	}
}

func TestTickYielderClosed(t *testing.T) {
	ticks := make(chan struct{})
	close(ticks)
	in := newTestIngestor(t, 1, TickYielder{C: ticks})

	if _, err := in.Ingest(context.Background(), makeRows(3), nil); !errors.Is(err, ErrTicksClosed) {
		t.Errorf("expected ErrTicksClosed, got %v", err)
	}
}
