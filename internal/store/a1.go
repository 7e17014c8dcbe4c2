package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a parsed A1 range. Columns are 1-based; a zero row bound means open-ended.
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseRange parses ranges such as "Eventos!A:G", "Eventos!A3:G3" or "'My Sheet'!B2:C".
func ParseRange(s string) (Range, error) {
	sheet, cells, ok := cutLast(s, "!")
	if !ok || sheet == "" || cells == "" {
		return Range{}, fmt.Errorf("store: invalid range %q", s)
	}
	sheet = strings.Trim(sheet, "'")

	from, to, found := strings.Cut(cells, ":")
	if !found {
		to = from
	}
	r := Range{Sheet: sheet}
	var err error
	if r.StartCol, r.StartRow, err = parseCell(from); err != nil {
		return Range{}, fmt.Errorf("store: invalid range %q: %w", s, err)
	}
	if r.EndCol, r.EndRow, err = parseCell(to); err != nil {
		return Range{}, fmt.Errorf("store: invalid range %q: %w", s, err)
	}
	if r.EndCol < r.StartCol || (r.EndRow != 0 && r.EndRow < r.StartRow) {
		return Range{}, fmt.Errorf("store: inverted range %q", s)
	}
	return r, nil
}

// String renders r back to A1 notation.
func (r Range) String() string {
	return QuoteSheet(r.Sheet) + "!" + cell(r.StartCol, r.StartRow) + ":" + cell(r.EndCol, r.EndRow)
}

// Width is the number of columns covered by r.
func (r Range) Width() int { return r.EndCol - r.StartCol + 1 }

// Row returns the single-row range for row n with the same columns as r.
func (r Range) Row(n int) Range {
	r.StartRow, r.EndRow = n, n
	return r
}

// QuoteSheet quotes a sheet name when A1 notation requires it.
func QuoteSheet(name string) string {
	if strings.ContainsAny(name, " '!:") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// ColumnName converts a 1-based column index to letters (1 -> A, 27 -> AA).
func ColumnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func cell(col, row int) string {
	if row == 0 {
		return ColumnName(col)
	}
	return ColumnName(col) + strconv.Itoa(row)
}

func parseCell(s string) (col, row int, err error) {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		i++
	}
	if col == 0 {
		return 0, 0, fmt.Errorf("missing column in %q", s)
	}
	if i < len(s) {
		row, err = strconv.Atoi(s[i:])
		if err != nil || row < 1 {
			return 0, 0, fmt.Errorf("bad row in %q", s)
		}
	}
	return col, row, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
