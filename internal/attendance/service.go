package attendance

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"geopresence/internal/admission"
	"geopresence/internal/apperr"
	"geopresence/internal/event"
	"geopresence/internal/geo"
)

// Submission is a participant's check-in request as sent by the form.
type Submission struct {
	Name          string   `json:"nome" validate:"required,max=200"`
	ParticipantID string   `json:"matriculaCpf" validate:"required,digits,max=32"`
	Keyword       string   `json:"codigo" validate:"required,max=64"`
	Date          string   `json:"data" validate:"max=32"`
	Time          string   `json:"hora" validate:"max=64"`
	Latitude      *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude     *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// Admitter decides whether a submission matches an event.
type Admitter interface {
	Validate(ctx context.Context, keyword string, date time.Time, coords geo.Point) (admission.Admission, error)
}

// Service coordinates input checks, admission and recording.
type Service struct {
	repo     *Repository
	admitter Admitter
	loc      *time.Location
	now      func() time.Time
	validate *validator.Validate
}

// NewService creates a service. Dates without an explicit zone are read in loc.
func NewService(repo *Repository, admitter Admitter, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		admitter: admitter,
		loc:      loc,
		now:      time.Now,
		validate: newValidator(),
	}
}

// CheckIn validates sub, runs admission and records the attendance.
// Input faults wrap apperr.ErrInvalidInput; admission faults wrap
// admission.ErrRejected.
func (s *Service) CheckIn(ctx context.Context, sub Submission) (Record, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.ParticipantID = strings.TrimSpace(sub.ParticipantID)
	sub.Keyword = strings.TrimSpace(sub.Keyword)
	if err := s.validate.Struct(sub); err != nil {
		return Record{}, fieldError(err)
	}

	now := s.now().In(s.loc)
	date := now
	if strings.TrimSpace(sub.Date) != "" {
		var err error
		if date, err = event.ParseDate(sub.Date, s.loc); err != nil {
			return Record{}, apperr.Field("data", apperr.CodeFormat)
		}
	}
	clock := strings.TrimSpace(sub.Time)
	if clock == "" {
		clock = now.Format("15:04:05")
	}

	coords := geo.Point{Latitude: *sub.Latitude, Longitude: *sub.Longitude}
	adm, err := s.admitter.Validate(ctx, sub.Keyword, date, coords)
	if err != nil {
		return Record{}, err
	}

	return s.repo.Insert(ctx, Record{
		Name:          sub.Name,
		ParticipantID: sub.ParticipantID,
		Keyword:       sub.Keyword,
		Date:          date.Format(event.DateLayout),
		Time:          clock,
		Latitude:      coords.Latitude,
		Longitude:     coords.Longitude,
		WithinRadius:  adm.WithinRadius,
		EventID:       adm.EventID,
	})
}

// List returns attendance records, filtered by event when eventID is set.
func (s *Service) List(ctx context.Context, eventID string) ([]Record, error) {
	return s.repo.List(ctx, strings.TrimSpace(eventID))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return s != ""
	})
	return v
}

// fieldError reduces validator output to the first failing field.
func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Field("", apperr.CodeFormat)
	}
	fe := verrs[0]
	code := apperr.CodeFormat
	switch fe.Tag() {
	case "required":
		code = apperr.CodeRequired
	case "digits":
		code = apperr.CodeDigits
	case "min", "max":
		code = apperr.CodeRange
	}
	return apperr.Field(fe.Field(), code)
}
