package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned when the selected backend lacks required settings.
var ErrNotConfigured = errors.New("store: backend not configured")

// Table is the range-addressed row store the application persists into.
// Ranges use A1 notation scoped to a sheet, e.g. "Eventos!A:G".
type Table interface {
	Read(ctx context.Context, rng string) ([][]string, error)
	Append(ctx context.Context, rng string, rows [][]string) error
	Update(ctx context.Context, rng string, rows [][]string) error
	Clear(ctx context.Context, rng string) error
}

// Observer receives the outcome of every table call.
type Observer interface {
	ObserveStore(op string, elapsed time.Duration, err error)
}

// Instrument wraps t so each call is reported to obs and bounded by timeout.
func Instrument(t Table, obs Observer, timeout time.Duration) Table {
	return &instrumented{next: t, obs: obs, timeout: timeout}
}

type instrumented struct {
	next    Table
	obs     Observer
	timeout time.Duration
}

func (i *instrumented) Read(ctx context.Context, rng string) ([][]string, error) {
	var rows [][]string
	err := i.do(ctx, "read", func(ctx context.Context) error {
		var err error
		rows, err = i.next.Read(ctx, rng)
		return err
	})
	return rows, err
}

func (i *instrumented) Append(ctx context.Context, rng string, rows [][]string) error {
	return i.do(ctx, "append", func(ctx context.Context) error { return i.next.Append(ctx, rng, rows) })
}

func (i *instrumented) Update(ctx context.Context, rng string, rows [][]string) error {
	return i.do(ctx, "update", func(ctx context.Context) error { return i.next.Update(ctx, rng, rows) })
}

func (i *instrumented) Clear(ctx context.Context, rng string) error {
	return i.do(ctx, "clear", func(ctx context.Context) error { return i.next.Clear(ctx, rng) })
}

func (i *instrumented) do(ctx context.Context, op string, fn func(context.Context) error) error {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	if i.obs != nil {
		i.obs.ObserveStore(op, time.Since(start), err)
	}
	return err
}
