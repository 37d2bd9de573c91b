package event

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/space"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

type fakeSpaceDir struct {
	known map[int64]space.Space
}

func (d fakeSpaceDir) GetByID(_ context.Context, id int64) (space.Space, error) {
	spc, ok := d.known[id]
	if !ok {
		return space.Space{}, space.ErrNotFound
	}
	return spc, nil
}

func newTestValidator(t *testing.T) *validator.Validate {
	t.Helper()

	validate := validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestNewEventValidate(t *testing.T) {
	validate := newTestValidator(t)
	svc := NewService(nil, fakeSpaceDir{known: map[int64]space.Space{7: {ID: 7, Name: "Auditorium"}}}, nopLogger{})

	start := time.Date(2026, time.September, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	valid := NewEvent{
		Name:       "Orientation Day",
		LocationID: 7,
		StartDate:  start,
		EndDate:    end,
		Scopes:     []string{ScopeAllStudents},
	}

	tests := []struct {
		name    string
		mutate  func(ne *NewEvent)
		wantErr bool
	}{
		{name: "valid", mutate: func(ne *NewEvent) {}},
		{name: "valid college scopes", mutate: func(ne *NewEvent) { ne.Scopes = []string{"CICT", "CBM"} }},
		{name: "valid year level scope", mutate: func(ne *NewEvent) { ne.Scopes = []string{"1st years"} }},
		{name: "missing name", mutate: func(ne *NewEvent) { ne.Name = "" }, wantErr: true},
		{name: "name too short", mutate: func(ne *NewEvent) { ne.Name = "ab" }, wantErr: true},
		{name: "missing location", mutate: func(ne *NewEvent) { ne.LocationID = 0 }, wantErr: true},
		{name: "unknown location", mutate: func(ne *NewEvent) { ne.LocationID = 404 }, wantErr: true},
		{name: "end before start", mutate: func(ne *NewEvent) { ne.EndDate = start.Add(-time.Hour) }, wantErr: true},
		{name: "end equals start", mutate: func(ne *NewEvent) { ne.EndDate = start }, wantErr: true},
		{name: "no scopes", mutate: func(ne *NewEvent) { ne.Scopes = nil }, wantErr: true},
		{name: "unknown scope", mutate: func(ne *NewEvent) { ne.Scopes = []string{"Alumni"} }, wantErr: true},
		{name: "bad image url", mutate: func(ne *NewEvent) { ne.ImageURL = "not-a-url" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ne := valid
			ne.Scopes = append([]string(nil), valid.Scopes...)
			tt.mutate(&ne)

			err := ne.Validate(validate, svc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateEventValidate(t *testing.T) {
	validate := newTestValidator(t)
	svc := NewService(nil, fakeSpaceDir{known: map[int64]space.Space{7: {ID: 7}}}, nopLogger{})

	start := time.Date(2026, time.September, 10, 9, 0, 0, 0, time.UTC)
	orig := Event{
		ID:         1,
		Name:       "Orientation Day",
		LocationID: 7,
		StartDate:  start,
		EndDate:    start.Add(3 * time.Hour),
		Scopes:     []string{ScopeAllStudents},
	}

	t.Run("empty update keeps schedule", func(t *testing.T) {
		ue := UpdateEvent{}
		if err := ue.Validate(orig, validate, svc); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("moving start past current end is rejected", func(t *testing.T) {
		late := orig.EndDate.Add(time.Hour)
		ue := UpdateEvent{StartDate: &late}
		err := ue.Validate(orig, validate, svc)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Validate() error = %v, want ValidationError", err)
		}
	})

	t.Run("moving end before current start is rejected", func(t *testing.T) {
		early := orig.StartDate.Add(-time.Hour)
		ue := UpdateEvent{EndDate: &early}
		if err := ue.Validate(orig, validate, svc); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("consistent reschedule is accepted", func(t *testing.T) {
		newStart := orig.EndDate.Add(24 * time.Hour)
		newEnd := newStart.Add(2 * time.Hour)
		ue := UpdateEvent{StartDate: &newStart, EndDate: &newEnd}
		if err := ue.Validate(orig, validate, svc); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("unknown location is rejected", func(t *testing.T) {
		loc := int64(404)
		ue := UpdateEvent{LocationID: &loc}
		if err := ue.Validate(orig, validate, svc); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})
}

func TestScopes(t *testing.T) {
	scopes := Scopes()
	if scopes[0] != ScopeAllStudents {
		t.Errorf("Scopes()[0] = %q, want %q", scopes[0], ScopeAllStudents)
	}
	if want := 1 + len(YearLevels) + len(Colleges); len(scopes) != want {
		t.Errorf("len(Scopes()) = %d, want %d", len(scopes), want)
	}
	for _, s := range scopes {
		if !KnownScope(s) {
			t.Errorf("KnownScope(%q) = false", s)
		}
	}
	if KnownScope("Faculty") {
		t.Error(`KnownScope("Faculty") = true`)
	}
}
