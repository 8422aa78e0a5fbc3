package service

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-report-service/internal/auth"
	"github.com/spec-kit/repair-report-service/internal/config"
	"github.com/spec-kit/repair-report-service/internal/domain"
	"github.com/spec-kit/repair-report-service/internal/repository"
	apperrors "github.com/spec-kit/repair-report-service/pkg/util"
)

// AuthService coordinates registration, login and token verification.
type AuthService struct {
	users        repository.UserRepository
	tokenMgr     *auth.TokenManager
	bcryptCost   int
	passwordMin  int
	emailPattern *regexp.Regexp
}

// NewAuthService builds the service. Only addresses on the configured
// institution domain are accepted.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	pattern := regexp.MustCompile(`^[a-zA-Z0-9._-]+@` + regexp.QuoteMeta(cfg.EmailDomain) + `$`)
	return &AuthService{
		users:        users,
		tokenMgr:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		bcryptCost:   cfg.BcryptCost,
		passwordMin:  cfg.PasswordMinLength,
		emailPattern: pattern,
	}
}

// NormalizeEmail lowercases and trims the address. Applied before every
// comparison and before storage so lookups are case-insensitive.
func (s *AuthService) NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account. The role is always user; it is not
// client-settable.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = s.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	if !s.emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("email must be on the institution domain", nil)
	}
	if len(password) < s.passwordMin {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"minLength": s.passwordMin})
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, apperrors.NewDomainError("EMAIL_TAKEN", "email already registered", http.StatusBadRequest, nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// CheckEmail reports whether the normalized address is still available.
// Read-only, no side effects.
func (s *AuthService) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = s.NormalizeEmail(email)
	if !s.emailPattern.MatchString(email) {
		return false, apperrors.NewValidationError("email must be on the institution domain", nil)
	}
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return !exists, nil
}

// Login authenticates a user and issues a session token. An unknown email
// and a wrong password produce the identical failure so the endpoint is
// not a user-existence oracle.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = s.NormalizeEmail(email)
	if !s.emailPattern.MatchString(email) {
		return nil, "", time.Time{}, apperrors.NewValidationError("email must be on the institution domain", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, invalidCredentials()
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, invalidCredentials()
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, expiresAt, nil
}

// Verify validates a session token and re-resolves the user record. The
// role on the returned user comes from the store, not the token claim.
func (s *AuthService) Verify(ctx context.Context, tokenStr string) (*domain.User, error) {
	claims, err := s.tokenMgr.ParseToken(tokenStr)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func invalidCredentials() error {
	return apperrors.NewDomainError("INVALID_CREDENTIALS", "invalid credentials", http.StatusBadRequest, nil)
}
