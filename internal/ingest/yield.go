package ingest

import (
	"context"
	"runtime"
)

// Yielder hands control back to the host between chunks. Implementations
// block until the ingestor may continue or ctx is done.
type Yielder interface {
	Yield(ctx context.Context) error
}

// NoopYielder never suspends; tests use it to run ingestion synchronously
type NoopYielder struct{}

// Yield implements Yielder
func (NoopYielder) Yield(ctx context.Context) error {
	return ctx.Err()
}

// SchedulerYielder lets other goroutines run between chunks
type SchedulerYielder struct{}

// Yield implements Yielder
func (SchedulerYielder) Yield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// TickYielder waits for a tick on C before each further chunk, which lets a
// host drive ingestion from its own loop.
type TickYielder struct {
	C <-chan struct{}
}

// Yield implements Yielder
func (y TickYielder) Yield(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-y.C:
		if !ok {
			return ErrTicksClosed
		}
		return nil
	}
}
