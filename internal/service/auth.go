// AuthService — primary email+password sign-in.
//
// The portal's primary credential is email+password; the external
// identities (Discord, GitHub) are linked afterwards and can then serve
// as alternative sign-in routes (see identity.go). AuthService covers
// only the primary route:
//
//	AuthHandler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) ↘ PasswordService (bcrypt)
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/auth"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/repository"
)

// rpiEmailDomain decides the role at registration: campus addresses get
// the rpi role (with the RCS ID derived from the local part), everyone
// else is an external member.
const rpiEmailDomain = "@rpi.edu"

// AuthService handles registration and primary sign-in.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued session token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an account with email+password and signs the new
// member in.
//
// A duplicate email surfaces as the repository's conflict error — there
// is no pre-check, for the same reason the identity engine has none.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "must be a valid email address")
	}
	if len(password) < 8 {
		return nil, apperror.ValidationFailed("password", "must be at least 8 characters")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleExternal,
	}
	if local, ok := strings.CutSuffix(email, rpiEmailDomain); ok {
		user.Role = model.RoleRPI
		user.RcsID = local
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %s: %w", email, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("role", user.Role),
	)

	return s.issue(user)
}

// Login verifies email+password and signs the member in.
//
// Unknown email and wrong password both map to the same unauthorized
// error — the response must not reveal which one was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issue(user)
}

// IssueSession mints a session for an already-authenticated user. The
// identity engine's LoggedIn outcome goes through here.
func (s *AuthService) IssueSession(user *model.User) (*AuthResult, error) {
	return s.issue(user)
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// and by the middleware-adjacent handlers that need the full record.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
