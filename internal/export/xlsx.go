// Package export renders attendance lists as spreadsheet downloads.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"geopresence/internal/attendance"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName   = "Presenças"
)

var columns = []string{"Nome", "Matrícula/CPF", "Código", "Data", "Hora", "Latitude", "Longitude", "Dentro da área", "Evento", "ID"}

// WriteXLSX writes records as a single-sheet workbook to w.
func WriteXLSX(w io.Writer, records []attendance.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	head := make([]any, len(columns))
	for i, c := range columns {
		head[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &head); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(sheetName, 1, 1, bold)
	}

	for i, rec := range records {
		within := "Não"
		if rec.WithinRadius {
			within = "Sim"
		}
		row := []any{
			rec.Name, rec.ParticipantID, rec.Keyword, rec.Date, rec.Time,
			rec.Latitude, rec.Longitude, within, rec.EventID, rec.ID,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: cell: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(sheetName, "A", "A", 32)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}

// Filename names the download for eventID. Characters outside [A-Za-z0-9_-]
// are dropped.
func Filename(eventID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return -1
	}, eventID)
	if safe == "" {
		return "presencas.xlsx"
	}
	return "presencas-" + safe + ".xlsx"
}
