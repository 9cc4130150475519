package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/model"
)

// fakeEnrollmentRepo is an in-memory repository.EnrollmentRepository with
// the same (user, semester) upsert semantics as the real table.
type fakeEnrollmentRepo struct {
	enrollments map[string]*model.Enrollment // keyed by userID+"/"+semesterID
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: make(map[string]*model.Enrollment)}
}

func (f *fakeEnrollmentRepo) Upsert(ctx context.Context, e *model.Enrollment) error {
	key := e.UserID + "/" + e.SemesterID
	if existing, ok := f.enrollments[key]; ok {
		existing.ProjectID = e.ProjectID
		existing.Credits = e.Credits
		existing.IsProjectLead = e.IsProjectLead
		*e = *existing
		return nil
	}
	e.ID = xid.New().String()
	copied := *e
	f.enrollments[key] = &copied
	return nil
}

func (f *fakeEnrollmentRepo) ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	var out []model.Enrollment
	for _, e := range f.enrollments {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) ListBySemester(ctx context.Context, semesterID string) ([]model.Enrollment, error) {
	var out []model.Enrollment
	for _, e := range f.enrollments {
		if e.SemesterID == semesterID {
			out = append(out, *e)
		}
	}
	return out, nil
}

// fakeSemesterRepo holds a fixed semester list; GetActive scans dates the
// way the real query does.
type fakeSemesterRepo struct {
	semesters []model.Semester
}

func (f *fakeSemesterRepo) Create(ctx context.Context, s *model.Semester) error {
	f.semesters = append(f.semesters, *s)
	return nil
}

func (f *fakeSemesterRepo) GetByID(ctx context.Context, id string) (*model.Semester, error) {
	for _, s := range f.semesters {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, apperror.NotFound("semester", id)
}

func (f *fakeSemesterRepo) List(ctx context.Context) ([]model.Semester, error) {
	return append([]model.Semester(nil), f.semesters...), nil
}

func (f *fakeSemesterRepo) GetActive(ctx context.Context, now time.Time) (*model.Semester, error) {
	for _, s := range f.semesters {
		if !now.Before(s.StartDate) && !now.After(s.EndDate) {
			return &s, nil
		}
	}
	return nil, apperror.NotFound("active semester", now.Format("2006-01-02"))
}

type enrollmentFixture struct {
	enrollments *fakeEnrollmentRepo
	semesters   *fakeSemesterRepo
	projects    *fakeProjectRepo
	svc         *EnrollmentService
}

func newEnrollmentFixture(t *testing.T, active bool) *enrollmentFixture {
	t.Helper()

	f := &enrollmentFixture{
		enrollments: newFakeEnrollmentRepo(),
		semesters:   &fakeSemesterRepo{},
		projects:    newFakeProjectRepo(),
	}
	if active {
		now := time.Now()
		f.semesters.semesters = append(f.semesters.semesters, model.Semester{
			ID: "202601", Name: "Spring 2026",
			StartDate: now.AddDate(0, -1, 0),
			EndDate:   now.AddDate(0, 3, 0),
		})
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	f.svc = NewEnrollmentService(f.enrollments, f.semesters, f.projects, logger)
	return f
}

func TestEnroll_RequiresSetUpProfile(t *testing.T) {
	f := newEnrollmentFixture(t, true)

	_, err := f.svc.Enroll(context.Background(), member("u1"), EnrollInput{})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden for incomplete profile", err)
	}
}

func TestEnroll_NoActiveSemester(t *testing.T) {
	f := newEnrollmentFixture(t, false)

	_, err := f.svc.Enroll(context.Background(), setUpMember("u1"), EnrollInput{})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden outside any semester", err)
	}
}

func TestEnroll_Success(t *testing.T) {
	f := newEnrollmentFixture(t, true)

	enrollment, err := f.svc.Enroll(context.Background(), setUpMember("u1"), EnrollInput{Credits: 4})
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if enrollment.SemesterID != "202601" {
		t.Errorf("SemesterID = %q, want the active semester", enrollment.SemesterID)
	}
	if enrollment.Credits != 4 {
		t.Errorf("Credits = %d, want 4", enrollment.Credits)
	}
}

func TestEnroll_TwiceUpdatesInPlace(t *testing.T) {
	f := newEnrollmentFixture(t, true)
	viewer := setUpMember("u1")

	project := &model.Project{Name: "Observatory", IsApproved: true}
	if err := f.projects.Create(context.Background(), project); err != nil {
		t.Fatalf("setup: %v", err)
	}

	first, err := f.svc.Enroll(context.Background(), viewer, EnrollInput{Credits: 0})
	if err != nil {
		t.Fatalf("first Enroll() error = %v", err)
	}

	second, err := f.svc.Enroll(context.Background(), viewer, EnrollInput{
		ProjectID: &project.ID, Credits: 2,
	})
	if err != nil {
		t.Fatalf("second Enroll() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-enrolling created a new row: %q vs %q", second.ID, first.ID)
	}
	if second.Credits != 2 {
		t.Errorf("Credits = %d, want 2", second.Credits)
	}
}

func TestEnroll_RejectsUnknownProject(t *testing.T) {
	f := newEnrollmentFixture(t, true)

	ghost := "no-such-project"
	_, err := f.svc.Enroll(context.Background(), setUpMember("u1"), EnrollInput{ProjectID: &ghost})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestEnroll_RejectsBadCredits(t *testing.T) {
	f := newEnrollmentFixture(t, true)

	for _, credits := range []int{-1, 5} {
		_, err := f.svc.Enroll(context.Background(), setUpMember("u1"), EnrollInput{Credits: credits})
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("credits %d: err = %v, want ErrValidation", credits, err)
		}
	}
}
