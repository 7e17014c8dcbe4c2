package attendance

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"geopresence/internal/store"
)

// Record is one accepted check-in. Records are append-only.
type Record struct {
	ID            string  `json:"id"`
	Name          string  `json:"nome"`
	ParticipantID string  `json:"matriculaCpf"`
	Keyword       string  `json:"codigo"`
	Date          string  `json:"data"`
	Time          string  `json:"hora"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	WithinRadius  bool    `json:"dentroDaArea"`
	EventID       string  `json:"eventoId"`
}

// Column order of the attendance sheet. The record id lives in the last
// column so rows written before it existed still line up.
var header = []string{"Nome", "Matrícula/CPF", "Código", "Data", "Hora", "Latitude", "Longitude", "Dentro da área", "Evento", "ID"}

const (
	yes = "Sim"
	no  = "Não"
)

// Repository persists attendance records as sheet rows.
type Repository struct {
	table store.Table
	rng   store.Range
}

// NewRepository creates a repo over columns A:J of sheet.
func NewRepository(table store.Table, sheet string) *Repository {
	return &Repository{
		table: table,
		rng:   store.Range{Sheet: sheet, StartCol: 1, EndCol: len(header)},
	}
}

// EnsureHeader writes the header row when the sheet is empty.
func (r *Repository) EnsureHeader(ctx context.Context) error {
	first := r.rng.Row(1).String()
	rows, err := r.table.Read(ctx, first)
	if err != nil {
		return fmt.Errorf("read attendance header: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		return nil
	}
	if err := r.table.Update(ctx, first, [][]string{header}); err != nil {
		return fmt.Errorf("write attendance header: %w", err)
	}
	return nil
}

// Insert appends rec and returns it with its generated id.
// Duplicate submissions are not detected.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := r.table.Append(ctx, r.rng.String(), [][]string{toRow(rec)}); err != nil {
		return Record{}, fmt.Errorf("append attendance: %w", err)
	}
	return rec, nil
}

// List returns every record, or only those matched to eventID when it is set.
func (r *Repository) List(ctx context.Context, eventID string) ([]Record, error) {
	rows, err := r.table.Read(ctx, r.rng.String())
	if err != nil {
		return nil, fmt.Errorf("read attendance: %w", err)
	}
	res := []Record{}
	if len(rows) <= 1 {
		return res, nil
	}
	for i, row := range rows[1:] {
		rec := fromRow(row, i+2)
		if rec.Name == "" {
			continue
		}
		if eventID != "" && rec.EventID != eventID {
			continue
		}
		res = append(res, rec)
	}
	return res, nil
}

func toRow(rec Record) []string {
	within := no
	if rec.WithinRadius {
		within = yes
	}
	return []string{
		rec.Name,
		rec.ParticipantID,
		rec.Keyword,
		rec.Date,
		rec.Time,
		strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
		strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
		within,
		rec.EventID,
		rec.ID,
	}
}

// fromRow tolerates short or malformed rows. Rows without an id column get a
// synthetic one derived from their sheet row number.
func fromRow(row []string, n int) Record {
	rec := Record{
		Name:          cellAt(row, 0),
		ParticipantID: cellAt(row, 1),
		Keyword:       cellAt(row, 2),
		Date:          strings.TrimPrefix(cellAt(row, 3), "'"),
		Time:          cellAt(row, 4),
		Latitude:      parseFloat(cellAt(row, 5)),
		Longitude:     parseFloat(cellAt(row, 6)),
		WithinRadius:  cellAt(row, 7) == yes,
		EventID:       cellAt(row, 8),
		ID:            cellAt(row, 9),
	}
	if rec.ID == "" {
		rec.ID = "row-" + strconv.Itoa(n)
	}
	return rec
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
