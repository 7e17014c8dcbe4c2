package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"geopresence/internal/store"
)

var (
	ErrNotFound     = errors.New("event not found")
	ErrKeywordTaken = errors.New("event keyword already in use")
	// ErrConflict means the target row changed between lookup and write.
	ErrConflict = errors.New("event row changed concurrently")
)

const lockKey = "events"

// Directory reads and mutates events stored one per row in a sheet.
// Row 1 holds the header.
type Directory struct {
	table  store.Table
	rng    store.Range
	locker store.Locker
	loc    *time.Location
}

// NewDirectory creates a directory over columns A:G of sheet.
func NewDirectory(table store.Table, sheet string, locker store.Locker, loc *time.Location) *Directory {
	if locker == nil {
		locker = store.NewLocalLocker()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Directory{
		table:  table,
		rng:    store.Range{Sheet: sheet, StartCol: 1, EndCol: len(header)},
		locker: locker,
		loc:    loc,
	}
}

// Location is the reference time zone event dates are interpreted in.
func (d *Directory) Location() *time.Location { return d.loc }

// EnsureHeader writes the header row when the sheet is empty.
func (d *Directory) EnsureHeader(ctx context.Context) error {
	first := d.rng.Row(1).String()
	rows, err := d.table.Read(ctx, first)
	if err != nil {
		return fmt.Errorf("read events header: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		return nil
	}
	if err := d.table.Update(ctx, first, [][]string{header}); err != nil {
		return fmt.Errorf("write events header: %w", err)
	}
	return nil
}

// Ping reads the header row to check the store is reachable.
func (d *Directory) Ping(ctx context.Context) error {
	if _, err := d.table.Read(ctx, d.rng.Row(1).String()); err != nil {
		return fmt.Errorf("ping events sheet: %w", err)
	}
	return nil
}

// List returns every event in table order, skipping blank rows.
func (d *Directory) List(ctx context.Context) ([]Event, error) {
	rows, err := d.rows(ctx)
	if err != nil {
		return nil, err
	}
	events := []Event{}
	for _, row := range dataRows(rows) {
		if e := fromRow(row); e.ID != "" {
			events = append(events, e)
		}
	}
	return events, nil
}

// FindByKeyword returns the first event whose keyword matches, ignoring
// case and whitespace.
func (d *Directory) FindByKeyword(ctx context.Context, keyword string) (Event, bool, error) {
	want := NormalizeKeyword(keyword)
	if want == "" {
		return Event{}, false, nil
	}
	events, err := d.List(ctx)
	if err != nil {
		return Event{}, false, err
	}
	for _, e := range events {
		if NormalizeKeyword(e.Keyword) == want {
			return e, true, nil
		}
	}
	return Event{}, false, nil
}

// Get returns the event with id.
func (d *Directory) Get(ctx context.Context, id string) (Event, error) {
	rows, err := d.rows(ctx)
	if err != nil {
		return Event{}, err
	}
	n := rowNumber(rows, id)
	if n == 0 {
		return Event{}, ErrNotFound
	}
	return fromRow(rows[n-1]), nil
}

// Create validates in, rejects a keyword already used by another event and
// appends the new event.
func (d *Directory) Create(ctx context.Context, in Input) (Event, error) {
	e, err := in.normalize(d.loc)
	if err != nil {
		return Event{}, err
	}

	unlock, err := d.locker.Lock(ctx, lockKey)
	if err != nil {
		return Event{}, err
	}
	defer unlock()

	rows, err := d.rows(ctx)
	if err != nil {
		return Event{}, err
	}
	if keywordOwner(rows, e.Keyword) != "" {
		return Event{}, ErrKeywordTaken
	}

	e.ID = "ev_" + uuid.NewString()
	if len(rows) == 0 {
		if err := d.table.Update(ctx, d.rng.Row(1).String(), [][]string{header}); err != nil {
			return Event{}, fmt.Errorf("write events header: %w", err)
		}
	}
	if err := d.table.Append(ctx, d.rng.String(), [][]string{toRow(e)}); err != nil {
		return Event{}, fmt.Errorf("append event: %w", err)
	}
	return e, nil
}

// Update overwrites the row of event id with in.
func (d *Directory) Update(ctx context.Context, id string, in Input) (Event, error) {
	e, err := in.normalize(d.loc)
	if err != nil {
		return Event{}, err
	}
	e.ID = id

	err = d.mutate(ctx, id, func(rows [][]string, n int) error {
		if owner := keywordOwner(rows, e.Keyword); owner != "" && owner != id {
			return ErrKeywordTaken
		}
		if err := d.table.Update(ctx, d.rng.Row(n).String(), [][]string{toRow(e)}); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	return e, nil
}

// Delete clears the row of event id. Attendance records are left untouched.
func (d *Directory) Delete(ctx context.Context, id string) error {
	return d.mutate(ctx, id, func(_ [][]string, n int) error {
		if err := d.table.Clear(ctx, d.rng.Row(n).String()); err != nil {
			return fmt.Errorf("clear event: %w", err)
		}
		return nil
	})
}

// mutate locates id under the lock, confirms the row still holds id right
// before writing, then runs write against row n.
func (d *Directory) mutate(ctx context.Context, id string, write func(rows [][]string, n int) error) error {
	if id == "" {
		return ErrNotFound
	}
	unlock, err := d.locker.Lock(ctx, lockKey)
	if err != nil {
		return err
	}
	defer unlock()

	rows, err := d.rows(ctx)
	if err != nil {
		return err
	}
	n := rowNumber(rows, id)
	if n == 0 {
		return ErrNotFound
	}

	current, err := d.table.Read(ctx, d.rng.Row(n).String())
	if err != nil {
		return fmt.Errorf("recheck event row: %w", err)
	}
	if len(current) == 0 || fromRow(current[0]).ID != id {
		return ErrConflict
	}
	return write(rows, n)
}

func (d *Directory) rows(ctx context.Context) ([][]string, error) {
	rows, err := d.table.Read(ctx, d.rng.String())
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return rows, nil
}

func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

// rowNumber returns the 1-based sheet row holding id, or 0.
func rowNumber(rows [][]string, id string) int {
	if id == "" {
		return 0
	}
	for i, row := range dataRows(rows) {
		if cellAt(row, 0) == id {
			return i + 2
		}
	}
	return 0
}

// keywordOwner returns the id of the first event using keyword.
func keywordOwner(rows [][]string, keyword string) string {
	for _, row := range dataRows(rows) {
		e := fromRow(row)
		if e.ID != "" && NormalizeKeyword(e.Keyword) == keyword {
			return e.ID
		}
	}
	return ""
}
