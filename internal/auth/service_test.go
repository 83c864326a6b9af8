package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelasquez/storefront-backend/internal/users"
	pkgauth "github.com/avelasquez/storefront-backend/pkg/auth"
	"github.com/avelasquez/storefront-backend/pkg/config"
	pkgerrors "github.com/avelasquez/storefront-backend/pkg/errors"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  is_admin INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	emailIndex := `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email);`

	require.NoError(t, db.Exec(usersTable).Error)
	require.NoError(t, db.Exec(emailIndex).Error)
	return db
}

type memorySessions struct {
	data map[string]string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{data: map[string]string{}}
}

func (m *memorySessions) StoreSession(ctx context.Context, accessID, userID string, ttl time.Duration) error {
	m.data[accessID] = userID
	return nil
}

func (m *memorySessions) GetSession(ctx context.Context, accessID string) (string, error) {
	userID, ok := m.data[accessID]
	if !ok {
		return "", errors.New("session not found")
	}
	return userID, nil
}

func (m *memorySessions) RevokeSession(ctx context.Context, accessID string) error {
	delete(m.data, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 15,
		SessionTTLMinutes: 60,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T, db *gorm.DB, sessions *memorySessions) Service {
	t.Helper()
	svc, err := NewService(users.NewRepository(db), sessions, testJWTConfig(), testPasswordConfig())
	require.NoError(t, err)
	return svc
}

func TestRegisterLoginLogout(t *testing.T) {
	t.Parallel()

	db := setupAuthTestDB(t)
	sessions := newMemorySessions()
	svc := newTestService(t, db, sessions)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{
		Email:     "Shopper@Example.com",
		Password:  "correct-horse",
		FirstName: "Sam",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "shopper@example.com", registered.User.Email)

	// Token round-trips and its session is live.
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), registered.Token)
	require.NoError(t, err)
	user, err := svc.CheckSession(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, user.ID)

	session, err := svc.Login(ctx, LoginInput{Email: "shopper@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	require.NoError(t, svc.Logout(ctx, claims.ID))
	_, err = svc.CheckSession(ctx, claims)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	// Logout is idempotent.
	require.NoError(t, svc.Logout(ctx, claims.ID))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	db := setupAuthTestDB(t)
	svc := newTestService(t, db, newMemorySessions())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "long-enough"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "long-enough"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	db := setupAuthTestDB(t)
	svc := newTestService(t, db, newMemorySessions())
	ctx := context.Background()

	cases := []RegisterInput{
		{Email: "", Password: "long-enough"},
		{Email: "not-an-email", Password: "long-enough"},
		{Email: "ok@example.com", Password: "short"},
	}
	for _, input := range cases {
		_, err := svc.Register(ctx, input)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "input %+v must fail", input)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	db := setupAuthTestDB(t)
	svc := newTestService(t, db, newMemorySessions())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "who@example.com", Password: "long-enough"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "who@example.com", Password: "wrong-password"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever-long"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code(), "unknown emails look identical to bad passwords")
}
