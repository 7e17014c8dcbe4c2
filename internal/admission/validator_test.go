package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"geopresence/internal/event"
	"geopresence/internal/geo"
	"geopresence/internal/store"
)

type ValidatorSuite struct {
	suite.Suite
	ctx       context.Context
	mem       *store.Memory
	validator *Validator
	day       time.Time
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.mem = store.NewMemory()
	s.mem.Seed("Eventos", [][]string{
		{"ID", "Nome", "Data", "Palavra-chave", "Latitude", "Longitude", "Raio"},
		{"ev_foo", "Foo", "2024-06-01", "FOO", "0", "0", "100"},
		{"ev_partial", "Sem raio", "2024-06-01", "PARTIAL", "0", "0"},
	})
	dir := event.NewDirectory(s.mem, "Eventos", nil, time.UTC)
	s.validator = NewValidator(dir, time.UTC)
	s.day = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func (s *ValidatorSuite) reason(err error) Reason {
	s.T().Helper()
	s.Require().ErrorIs(err, ErrRejected)
	var rej *Rejection
	s.Require().ErrorAs(err, &rej)
	return rej.Reason
}

func (s *ValidatorSuite) TestAcceptsMatchingSubmission() {
	for _, kw := range []string{"FOO", "foo", "Foo", " f o o "} {
		got, err := s.validator.Validate(s.ctx, kw, s.day, geo.Point{})
		s.Require().NoError(err, kw)
		s.Equal("ev_foo", got.EventID)
		s.True(got.WithinRadius)
		s.Equal(0.0, got.Distance)
	}
}

func (s *ValidatorSuite) TestIgnoresTimeOfDay() {
	late := s.day.Add(23*time.Hour + 30*time.Minute)
	_, err := s.validator.Validate(s.ctx, "foo", late, geo.Point{})
	s.NoError(err)
}

func (s *ValidatorSuite) TestRejectsOutOfRadius() {
	// 0.0045 degrees of latitude is about 500 m.
	_, err := s.validator.Validate(s.ctx, "foo", s.day, geo.Point{Latitude: 0.0045})
	s.Equal(ReasonOutOfRange, s.reason(err))
}

func (s *ValidatorSuite) TestAcceptsOnRadiusEdge() {
	// About 89 m north: inside a 100 m radius.
	got, err := s.validator.Validate(s.ctx, "foo", s.day, geo.Point{Latitude: 0.0008})
	s.Require().NoError(err)
	s.Less(got.Distance, 100.0)
}

func (s *ValidatorSuite) TestRejectsWrongDate() {
	_, err := s.validator.Validate(s.ctx, "foo", s.day.AddDate(0, 0, 1), geo.Point{})
	s.Equal(ReasonWrongDate, s.reason(err))
}

func (s *ValidatorSuite) TestRejectsUnknownKeyword() {
	_, err := s.validator.Validate(s.ctx, "bar", s.day, geo.Point{})
	s.Equal(ReasonUnknownKeyword, s.reason(err))
}

func (s *ValidatorSuite) TestRejectsEventWithoutCompleteLocation() {
	_, err := s.validator.Validate(s.ctx, "partial", s.day, geo.Point{})
	s.Equal(ReasonUnknownKeyword, s.reason(err))
}

func (s *ValidatorSuite) TestRejectionsShareOneMessage() {
	_, unknown := s.validator.Validate(s.ctx, "bar", s.day, geo.Point{})
	_, far := s.validator.Validate(s.ctx, "foo", s.day, geo.Point{Latitude: 1})
	s.True(errors.Is(unknown, ErrRejected))
	s.True(errors.Is(far, ErrRejected))
}

type failingFinder struct{}

func (failingFinder) FindByKeyword(context.Context, string) (event.Event, bool, error) {
	return event.Event{}, false, errors.New("sheet unreachable")
}

func (s *ValidatorSuite) TestStoreFailureIsNotARejection() {
	v := NewValidator(failingFinder{}, time.UTC)
	_, err := v.Validate(s.ctx, "foo", s.day, geo.Point{})
	s.Require().Error(err)
	s.False(errors.Is(err, ErrRejected))
}
