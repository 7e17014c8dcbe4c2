package store

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// valueInputRaw stores values exactly as sent, without formula or date parsing.
const valueInputRaw = "RAW"

// Sheets is a Table backed by a Google Sheets spreadsheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheets creates a Sheets table for spreadsheetID.
func NewSheets(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%w: spreadsheet id is empty", ErrNotConfigured)
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// ServiceAccount builds a client option from a service-account key, either
// inline JSON or a path to a key file. Inline JSON wins when both are set.
func ServiceAccount(ctx context.Context, keyFile, keyJSON string) (option.ClientOption, error) {
	key := []byte(keyJSON)
	if len(key) == 0 {
		if keyFile == "" {
			return nil, fmt.Errorf("%w: no service account credentials", ErrNotConfigured)
		}
		var err error
		key, err = os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("sheets: read credentials: %w", err)
		}
	}
	conf, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse credentials: %w", err)
	}
	return option.WithHTTPClient(conf.Client(ctx)), nil
}

// Read returns the formatted values of rng as strings.
func (s *Sheets) Read(ctx context.Context, rng string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read %s: %w", rng, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

// Append adds rows after the table found in rng.
func (s *Sheets) Append(ctx context.Context, rng string, rows [][]string) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, valueRange(rows)).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append %s: %w", rng, err)
	}
	return nil
}

// Update overwrites rng with rows.
func (s *Sheets) Update(ctx context.Context, rng string, rows [][]string) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, valueRange(rows)).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: update %s: %w", rng, err)
	}
	return nil
}

// Clear blanks rng.
func (s *Sheets) Clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: clear %s: %w", rng, err)
	}
	return nil
}

func valueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}
	return &sheets.ValueRange{Values: values}
}
