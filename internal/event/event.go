package event

import (
	"math"
	"strconv"
	"strings"
	"time"

	"geopresence/internal/apperr"
	"geopresence/internal/geo"
)

// Event is an attendance session participants check in to with a keyword.
// Location and radius are nil when the stored row lacks a usable value.
type Event struct {
	ID        string   `json:"id"`
	Name      string   `json:"nome"`
	Date      string   `json:"data"`
	Keyword   string   `json:"palavraChave"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *float64 `json:"raio"`
}

// Location returns the event coordinates and allowed radius. ok is false when
// any of them is missing.
func (e Event) Location() (p geo.Point, radius float64, ok bool) {
	if e.Latitude == nil || e.Longitude == nil || e.Radius == nil {
		return geo.Point{}, 0, false
	}
	return geo.Point{Latitude: *e.Latitude, Longitude: *e.Longitude}, *e.Radius, true
}

// Input is the administrator-supplied content of an event.
type Input struct {
	Name      string   `json:"nome"`
	Date      string   `json:"data"`
	Keyword   string   `json:"palavraChave"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *float64 `json:"raio"`
}

// NormalizeKeyword uppercases k and strips all whitespace.
func NormalizeKeyword(k string) string {
	return strings.ToUpper(strings.Join(strings.Fields(k), ""))
}

// normalize validates in and returns the event fields to store.
func (in Input) normalize(loc *time.Location) (Event, error) {
	e := Event{
		Name:      strings.TrimSpace(in.Name),
		Keyword:   NormalizeKeyword(in.Keyword),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Radius:    in.Radius,
	}
	switch {
	case e.Name == "":
		return Event{}, apperr.Field("nome", apperr.CodeRequired)
	case strings.TrimSpace(in.Date) == "":
		return Event{}, apperr.Field("data", apperr.CodeRequired)
	case e.Keyword == "":
		return Event{}, apperr.Field("palavraChave", apperr.CodeRequired)
	case e.Latitude == nil:
		return Event{}, apperr.Field("latitude", apperr.CodeRequired)
	case e.Longitude == nil:
		return Event{}, apperr.Field("longitude", apperr.CodeRequired)
	case e.Radius == nil:
		return Event{}, apperr.Field("raio", apperr.CodeRequired)
	case !finite(*e.Latitude) || *e.Latitude < -90 || *e.Latitude > 90:
		return Event{}, apperr.Field("latitude", apperr.CodeRange)
	case !finite(*e.Longitude) || *e.Longitude < -180 || *e.Longitude > 180:
		return Event{}, apperr.Field("longitude", apperr.CodeRange)
	case !finite(*e.Radius) || *e.Radius < 0:
		return Event{}, apperr.Field("raio", apperr.CodeRange)
	}
	date, err := NormalizeDate(in.Date, loc)
	if err != nil {
		return Event{}, apperr.Field("data", apperr.CodeFormat)
	}
	e.Date = date
	return e, nil
}

// Column order of the events sheet.
var header = []string{"ID", "Nome", "Data", "Palavra-chave", "Latitude", "Longitude", "Raio"}

func toRow(e Event) []string {
	return []string{e.ID, e.Name, e.Date, e.Keyword, formatFloat(e.Latitude), formatFloat(e.Longitude), formatFloat(e.Radius)}
}

// fromRow never fails; absent or malformed cells become zero or nil fields.
func fromRow(row []string) Event {
	return Event{
		ID:        cellAt(row, 0),
		Name:      cellAt(row, 1),
		Date:      strings.TrimPrefix(cellAt(row, 2), "'"),
		Keyword:   cellAt(row, 3),
		Latitude:  parseFloat(cellAt(row, 4)),
		Longitude: parseFloat(cellAt(row, 5)),
		Radius:    parseFloat(cellAt(row, 6)),
	}
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	// Sheets in pt-BR locale render decimals with a comma.
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || !finite(v) {
		return nil
	}
	return &v
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
