package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"geopresence/internal/admission"
	"geopresence/internal/apperr"
	"geopresence/internal/event"
	"geopresence/internal/geo"
	"geopresence/internal/store"
)

const (
	eventsSheet     = "Eventos"
	attendanceSheet = "Presenças"
)

func ptr(v float64) *float64 { return &v }

type countingAdmitter struct {
	next  Admitter
	calls int
}

func (c *countingAdmitter) Validate(ctx context.Context, keyword string, date time.Time, coords geo.Point) (admission.Admission, error) {
	c.calls++
	return c.next.Validate(ctx, keyword, date, coords)
}

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	mem      *store.Memory
	admitter *countingAdmitter
	svc      *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.mem = store.NewMemory()
	s.mem.Seed(eventsSheet, [][]string{
		{"ID", "Nome", "Data", "Palavra-chave", "Latitude", "Longitude", "Raio"},
		{"ev_foo", "Foo", "2024-06-01", "FOO", "0", "0", "100"},
		{"ev_bar", "Bar", "2024-06-01", "BAR", "10", "10", "50"},
	})
	dir := event.NewDirectory(s.mem, eventsSheet, nil, time.UTC)
	s.admitter = &countingAdmitter{next: admission.NewValidator(dir, time.UTC)}
	repo := NewRepository(s.mem, attendanceSheet)
	s.Require().NoError(repo.EnsureHeader(s.ctx))
	s.svc = NewService(repo, s.admitter, time.UTC)
	s.svc.now = func() time.Time { return time.Date(2024, 6, 1, 14, 5, 9, 0, time.UTC) }
}

func (s *ServiceSuite) submission() Submission {
	return Submission{
		Name:          "Maria Silva",
		ParticipantID: "12345",
		Keyword:       "foo",
		Date:          "2024-06-01",
		Time:          "09:15:00",
		Latitude:      ptr(0),
		Longitude:     ptr(0),
	}
}

func (s *ServiceSuite) fieldOf(err error) (string, string) {
	s.T().Helper()
	s.Require().ErrorIs(err, apperr.ErrInvalidInput)
	var fe *apperr.FieldError
	s.Require().ErrorAs(err, &fe)
	return fe.Field, fe.Code
}

func (s *ServiceSuite) TestCheckInRecordsAcceptedSubmission() {
	rec, err := s.svc.CheckIn(s.ctx, s.submission())
	s.Require().NoError(err)
	s.NotEmpty(rec.ID)
	s.Equal("ev_foo", rec.EventID)
	s.True(rec.WithinRadius)
	s.Equal("foo", rec.Keyword)

	rows := s.mem.Rows(attendanceSheet)
	s.Require().Len(rows, 2)
	s.Equal(header, rows[0])
	s.Equal([]string{"Maria Silva", "12345", "foo", "2024-06-01", "09:15:00", "0", "0", "Sim", "ev_foo", rec.ID}, rows[1])
}

func (s *ServiceSuite) TestCheckInDefaultsDateAndTime() {
	sub := s.submission()
	sub.Date = ""
	sub.Time = ""
	rec, err := s.svc.CheckIn(s.ctx, sub)
	s.Require().NoError(err)
	s.Equal("2024-06-01", rec.Date)
	s.Equal("14:05:09", rec.Time)
}

func (s *ServiceSuite) TestNonNumericParticipantIDRejectedBeforeAdmission() {
	sub := s.submission()
	sub.ParticipantID = "12a34"
	_, err := s.svc.CheckIn(s.ctx, sub)

	field, code := s.fieldOf(err)
	s.Equal("matriculaCpf", field)
	s.Equal(apperr.CodeDigits, code)
	s.Zero(s.admitter.calls)
	s.Len(s.mem.Rows(attendanceSheet), 1)
}

func (s *ServiceSuite) TestMissingFields() {
	cases := map[string]struct {
		mutate func(*Submission)
		field  string
	}{
		"name":      {func(sub *Submission) { sub.Name = "  " }, "nome"},
		"keyword":   {func(sub *Submission) { sub.Keyword = "" }, "codigo"},
		"id":        {func(sub *Submission) { sub.ParticipantID = "" }, "matriculaCpf"},
		"latitude":  {func(sub *Submission) { sub.Latitude = nil }, "latitude"},
		"longitude": {func(sub *Submission) { sub.Longitude = nil }, "longitude"},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			sub := s.submission()
			tc.mutate(&sub)
			_, err := s.svc.CheckIn(s.ctx, sub)
			field, code := s.fieldOf(err)
			s.Equal(tc.field, field)
			s.Equal(apperr.CodeRequired, code)
		})
	}
	s.Zero(s.admitter.calls)
}

func (s *ServiceSuite) TestOutOfRangeCoordinates() {
	sub := s.submission()
	sub.Latitude = ptr(123)
	field, code := s.fieldOf(mustErr(s.svc.CheckIn(s.ctx, sub)))
	s.Equal("latitude", field)
	s.Equal(apperr.CodeRange, code)
}

func (s *ServiceSuite) TestMalformedDate() {
	sub := s.submission()
	sub.Date = "ontem"
	field, code := s.fieldOf(mustErr(s.svc.CheckIn(s.ctx, sub)))
	s.Equal("data", field)
	s.Equal(apperr.CodeFormat, code)
}

func (s *ServiceSuite) TestAdmissionRejections() {
	cases := map[string]func(*Submission){
		"wrong date":      func(sub *Submission) { sub.Date = "2024-06-02" },
		"out of radius":   func(sub *Submission) { sub.Latitude = ptr(0.0045) },
		"unknown keyword": func(sub *Submission) { sub.Keyword = "nope" },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			sub := s.submission()
			mutate(&sub)
			_, err := s.svc.CheckIn(s.ctx, sub)
			s.ErrorIs(err, admission.ErrRejected)
		})
	}
	s.Len(s.mem.Rows(attendanceSheet), 1)
}

func (s *ServiceSuite) TestDuplicatesAccumulate() {
	for i := 0; i < 2; i++ {
		_, err := s.svc.CheckIn(s.ctx, s.submission())
		s.Require().NoError(err)
	}
	records, err := s.svc.List(s.ctx, "ev_foo")
	s.Require().NoError(err)
	s.Len(records, 2)
	s.NotEqual(records[0].ID, records[1].ID)
}

func (s *ServiceSuite) TestListFiltersByEventAndKeepsSameNames() {
	_, err := s.svc.CheckIn(s.ctx, s.submission())
	s.Require().NoError(err)

	other := s.submission()
	other.ParticipantID = "999"
	other.Keyword = "bar"
	other.Latitude, other.Longitude = ptr(10), ptr(10)
	_, err = s.svc.CheckIn(s.ctx, other)
	s.Require().NoError(err)

	foo, err := s.svc.List(s.ctx, "ev_foo")
	s.Require().NoError(err)
	s.Require().Len(foo, 1)
	s.Equal("12345", foo[0].ParticipantID)

	all, err := s.svc.List(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(all[0].Name, all[1].Name)
	s.NotEqual(all[0].ParticipantID, all[1].ParticipantID)
}

type brokenTable struct{ store.Table }

func (brokenTable) Read(context.Context, string) ([][]string, error) {
	return nil, errors.New("quota exceeded")
}

func (s *ServiceSuite) TestStoreFailureSurfaces() {
	dir := event.NewDirectory(brokenTable{}, eventsSheet, nil, time.UTC)
	svc := NewService(NewRepository(s.mem, attendanceSheet), admission.NewValidator(dir, time.UTC), time.UTC)

	_, err := svc.CheckIn(s.ctx, s.submission())
	s.Require().Error(err)
	s.False(errors.Is(err, admission.ErrRejected))
	s.False(errors.Is(err, apperr.ErrInvalidInput))
}

func mustErr(_ Record, err error) error { return err }
