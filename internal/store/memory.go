package store

import (
	"context"
	"sync"
)

// Memory is an in-process Table for dev and tests. It mimics the spreadsheet
// API: reads omit trailing empty rows and cells, appends land after the last
// non-empty row.
type Memory struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

// NewMemory creates an empty in-memory table store.
func NewMemory() *Memory {
	return &Memory{sheets: make(map[string][][]string)}
}

// Seed replaces the contents of sheet with rows.
func (m *Memory) Seed(sheet string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet] = cloneRows(rows)
}

// Rows returns a copy of the raw contents of sheet.
func (m *Memory) Rows(sheet string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRows(m.sheets[sheet])
}

// Read returns the cells inside rng.
func (m *Memory) Read(ctx context.Context, rng string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.sheets[r.Sheet]
	start := max(r.StartRow, 1)
	end := len(data)
	if r.EndRow != 0 && r.EndRow < end {
		end = r.EndRow
	}

	var out [][]string
	for n := start; n <= end; n++ {
		out = append(out, trimCells(sliceCols(data[n-1], r)))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// Append writes rows after the last non-empty row of the sheet.
func (m *Memory) Append(ctx context.Context, rng string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.sheets[r.Sheet]
	last := 0
	for i, row := range data {
		if len(trimCells(row)) > 0 {
			last = i + 1
		}
	}
	data = data[:last]
	for _, row := range rows {
		data = append(data, writeCells(nil, r.StartCol, row))
	}
	m.sheets[r.Sheet] = data
	return nil
}

// Update overwrites cells starting at the top-left corner of rng.
func (m *Memory) Update(ctx context.Context, rng string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.sheets[r.Sheet]
	start := max(r.StartRow, 1)
	for i, row := range rows {
		n := start + i
		for len(data) < n {
			data = append(data, nil)
		}
		data[n-1] = writeCells(data[n-1], r.StartCol, row)
	}
	m.sheets[r.Sheet] = data
	return nil
}

// Clear blanks every cell inside rng.
func (m *Memory) Clear(ctx context.Context, rng string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.sheets[r.Sheet]
	start := max(r.StartRow, 1)
	end := len(data)
	if r.EndRow != 0 && r.EndRow < end {
		end = r.EndRow
	}
	for n := start; n <= end; n++ {
		row := data[n-1]
		for c := r.StartCol; c <= r.EndCol && c <= len(row); c++ {
			row[c-1] = ""
		}
	}
	return nil
}

func sliceCols(row []string, r Range) []string {
	if r.StartCol > len(row) {
		return nil
	}
	end := min(r.EndCol, len(row))
	return append([]string(nil), row[r.StartCol-1:end]...)
}

func writeCells(row []string, startCol int, cells []string) []string {
	for len(row) < startCol-1+len(cells) {
		row = append(row, "")
	}
	copy(row[startCol-1:], cells)
	return row
}

func trimCells(row []string) []string {
	for len(row) > 0 && row[len(row)-1] == "" {
		row = row[:len(row)-1]
	}
	return row
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
