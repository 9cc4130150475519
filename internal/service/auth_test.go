package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/auth"
	"github.com/sakif/portal/internal/model"
)

// newTestAuthService wires an AuthService over the shared fakeUserRepo.
// Cost 4 is bcrypt's minimum, keeping each test in microseconds.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	ps := auth.NewPasswordServiceForTest(4)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	return NewAuthService(repo, ts, ps, logger)
}

func TestRegister_CampusEmailGetsRPIRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.Register(context.Background(), "lovela@rpi.edu", "correct horse battery")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if result.User.Role != model.RoleRPI {
		t.Errorf("Role = %q, want %q", result.User.Role, model.RoleRPI)
	}
	if result.User.RcsID != "lovela" {
		t.Errorf("RcsID = %q, want %q", result.User.RcsID, "lovela")
	}
	if result.Token == "" {
		t.Error("Register() should issue a session token")
	}
}

func TestRegister_ExternalEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.Register(context.Background(), "ada@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if result.User.Role != model.RoleExternal {
		t.Errorf("Role = %q, want %q", result.User.Role, model.RoleExternal)
	}
	if result.User.RcsID != "" {
		t.Errorf("RcsID = %q, want empty for external members", result.User.RcsID)
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.Register(context.Background(), "  Ada@Example.COM ", "correct horse battery")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result.User.Email != "ada@example.com" {
		t.Errorf("Email = %q, want lowercased/trimmed", result.User.Email)
	}
}

func TestRegister_RejectsBadInput(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "not-an-email", "correct horse battery"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("bad email: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Register(context.Background(), "ada@example.com", "short"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("short password: err = %v, want ErrValidation", err)
	}
}

func TestLogin_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "ada@example.com", "correct horse battery"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	result, err := svc.Login(context.Background(), "ada@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() should issue a session token")
	}
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "ada@example.com", "correct horse battery"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, errWrongPass := svc.Login(context.Background(), "ada@example.com", "wrong password")
	_, errNoUser := svc.Login(context.Background(), "nobody@example.com", "whatever here")

	// Both must be unauthorized, and neither response may reveal which
	// half of the credentials was wrong.
	if !errors.Is(errWrongPass, apperror.ErrUnauthorized) {
		t.Errorf("wrong password: err = %v, want ErrUnauthorized", errWrongPass)
	}
	if !errors.Is(errNoUser, apperror.ErrUnauthorized) {
		t.Errorf("unknown email: err = %v, want ErrUnauthorized", errNoUser)
	}
	if errWrongPass.Error() != errNoUser.Error() {
		t.Errorf("error messages differ: %q vs %q", errWrongPass.Error(), errNoUser.Error())
	}
}

func TestGetUserByID_EmptyID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.GetUserByID(context.Background(), ""); err == nil {
		t.Fatal("GetUserByID() should reject an empty ID")
	}
}
