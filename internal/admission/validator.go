// Package admission decides whether a check-in submission matches an event.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geopresence/internal/event"
	"geopresence/internal/geo"
)

// ErrRejected is returned for every admission failure. Callers must not tell
// the participant which check failed.
var ErrRejected = errors.New("admission rejected")

// Reason says which check rejected a submission. It is for logs and metrics only.
type Reason string

const (
	ReasonUnknownKeyword Reason = "unknown_keyword"
	ReasonWrongDate      Reason = "wrong_date"
	ReasonOutOfRange     Reason = "out_of_range"
)

// Rejection wraps ErrRejected with the failing check.
type Rejection struct {
	Reason   Reason
	EventID  string
	Distance float64
}

func (r *Rejection) Error() string { return fmt.Sprintf("admission rejected: %s", r.Reason) }

// Unwrap lets errors.Is(err, ErrRejected) match.
func (r *Rejection) Unwrap() error { return ErrRejected }

// Admission is a successful validation.
type Admission struct {
	EventID      string
	EventName    string
	WithinRadius bool
	Distance     float64
}

// Finder looks up events by keyword.
type Finder interface {
	FindByKeyword(ctx context.Context, keyword string) (event.Event, bool, error)
}

// Validator checks keyword, date and location of a submission.
type Validator struct {
	events Finder
	loc    *time.Location
}

// NewValidator compares calendar days in loc.
func NewValidator(events Finder, loc *time.Location) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{events: events, loc: loc}
}

// Validate admits a participant at coords claiming date for the event with
// keyword. Participants outside the event radius are rejected.
func (v *Validator) Validate(ctx context.Context, keyword string, date time.Time, coords geo.Point) (Admission, error) {
	ev, ok, err := v.events.FindByKeyword(ctx, keyword)
	if err != nil {
		return Admission{}, fmt.Errorf("find event: %w", err)
	}
	if !ok {
		return Admission{}, &Rejection{Reason: ReasonUnknownKeyword}
	}

	center, radius, ok := ev.Location()
	if !ok {
		return Admission{}, &Rejection{Reason: ReasonUnknownKeyword, EventID: ev.ID}
	}

	evDate, err := event.ParseDate(ev.Date, v.loc)
	if err != nil || !event.SameDay(evDate, date, v.loc) {
		return Admission{}, &Rejection{Reason: ReasonWrongDate, EventID: ev.ID}
	}

	distance := center.DistanceTo(coords)
	if distance > radius {
		return Admission{}, &Rejection{Reason: ReasonOutOfRange, EventID: ev.ID, Distance: distance}
	}

	return Admission{
		EventID:      ev.ID,
		EventName:    ev.Name,
		WithinRadius: true,
		Distance:     distance,
	}, nil
}
