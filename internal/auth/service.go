package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/avelasquez/storefront-backend/pkg/auth"
	"github.com/avelasquez/storefront-backend/pkg/config"
	"github.com/avelasquez/storefront-backend/pkg/db"
	"github.com/avelasquez/storefront-backend/pkg/db/models"
	"github.com/avelasquez/storefront-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/storefront-backend/pkg/errors"
	"github.com/avelasquez/storefront-backend/pkg/security"
)

const minPasswordLength = 8

// UserRepository is the persistence surface the auth service needs.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type sessionStore interface {
	StoreSession(ctx context.Context, accessID, userID string, ttl time.Duration) error
	GetSession(ctx context.Context, accessID string) (string, error)
	RevokeSession(ctx context.Context, accessID string) error
}

// Service covers account registration and token-based sessions.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	Logout(ctx context.Context, accessID string) error
	CheckSession(ctx context.Context, claims *pkgauth.AccessTokenClaims) (*models.User, error)
}

type service struct {
	users    UserRepository
	sessions sessionStore
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
}

// NewService builds the auth service.
func NewService(users UserRepository, sessions sessionStore, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &service{users: users, sessions: sessions, jwtCfg: jwtCfg, pwCfg: pwCfg}, nil
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string
	Password string
}

// Session carries a minted access token and the account it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := normalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.openSession(ctx, user)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	return s.openSession(ctx, user)
}

// Logout revokes the session handle. Revoking an unknown handle succeeds.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if accessID == "" {
		return nil
	}
	if err := s.sessions.RevokeSession(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// CheckSession confirms the token's session handle is still live and returns
// the account. A logged-out or expired handle fails even for a valid JWT.
func (s *service) CheckSession(ctx context.Context, claims *pkgauth.AccessTokenClaims) (*models.User, error) {
	if claims == nil || claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}

	userID, err := s.sessions.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	}
	if userID != claims.UserID.String() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session mismatch")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) openSession(ctx context.Context, user *models.User) (*Session, error) {
	role := enums.MemberRoleCustomer
	if user.IsAdmin {
		role = enums.MemberRoleAdmin
	}

	now := time.Now().UTC()
	jti := uuid.NewString()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   role,
		JTI:    jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if err := s.sessions.StoreSession(ctx, jti, user.ID.String(), s.jwtCfg.SessionTTL()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	return &Session{
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		User:      user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
