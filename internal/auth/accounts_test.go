package auth

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roomly/roomly/internal/db"
	"github.com/roomly/roomly/internal/user"
	"github.com/roomly/roomly/internal/validate"
)

func TestSignUpAndSignIn(t *testing.T) {
	accounts, tokens := testAccounts(t)

	u := signUp(t, accounts, "Tenant@Example.com", "tenant")
	require.Equal(t, "tenant@example.com", u.Email)
	require.Equal(t, user.RoleTenant, u.Role)
	require.NotEqual(t, "password123", u.PasswordHash)

	sess, err := accounts.SignIn(SignInRequest{Email: "tenant@example.com", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, u.ID, sess.User.ID)

	claims, err := tokens.Verify(sess.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.Equal(t, "tenant", claims.Role)

	got, err := accounts.Authenticate(sess.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestSignUpValidation(t *testing.T) {
	accounts, _ := testAccounts(t)

	tests := []struct {
		name  string
		req   SignUpRequest
		field string
	}{
		{"missing name", SignUpRequest{Email: "a@b.com", Password: "password123", PasswordConfirmation: "password123", Role: "tenant"}, "name"},
		{"bad email", SignUpRequest{Name: "A", Email: "nope", Password: "password123", PasswordConfirmation: "password123", Role: "tenant"}, "email"},
		{"short password", SignUpRequest{Name: "A", Email: "a@b.com", Password: "short", PasswordConfirmation: "short", Role: "tenant"}, "password"},
		{"mismatched confirmation", SignUpRequest{Name: "A", Email: "a@b.com", Password: "password123", PasswordConfirmation: "password124", Role: "tenant"}, "password_confirmation"},
		{"unknown role", SignUpRequest{Name: "A", Email: "a@b.com", Password: "password123", PasswordConfirmation: "password123", Role: "admin"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.SignUp(tt.req)
			var verr *validate.Error
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	accounts, _ := testAccounts(t)
	signUp(t, accounts, "dup@example.com", "tenant")

	_, err := accounts.SignUp(SignUpRequest{
		Name: "Other", Email: "DUP@example.com",
		Password: "password123", PasswordConfirmation: "password123", Role: "landlord",
	})
	require.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	accounts, _ := testAccounts(t)
	signUp(t, accounts, "ll@example.com", "landlord")

	_, err := accounts.SignIn(SignInRequest{Email: "ll@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = accounts.SignIn(SignInRequest{Email: "nobody@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	accounts, tokens := testAccounts(t)
	u := signUp(t, accounts, "t@example.com", "tenant")

	other := NewTokens([]byte("another-secret"))
	foreign, _, err := other.Issue(u)
	require.NoError(t, err)
	_, err = tokens.Verify(foreign)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokens([]byte("test-secret"))
	expired.ttl = -time.Hour
	stale, _, err := expired.Issue(u)
	require.NoError(t, err)
	_, err = tokens.Verify(stale)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	database := testDB(t)
	tokens := NewTokens([]byte("test-secret"))
	repo := user.NewRepository(database)
	accounts := NewAccounts(repo, tokens)
	accounts.cost = bcrypt.MinCost

	u := signUp(t, accounts, "gone@example.com", "tenant")
	token, _, err := tokens.Issue(u)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(u.ID))

	_, err = accounts.Authenticate(token)
	require.True(t, errors.Is(err, ErrInvalidToken), "err = %v", err)
}

func TestConfigSecret(t *testing.T) {
	_, err := Config{}.Secret()
	require.Error(t, err)

	s, err := Config{DevMode: true}.Secret()
	require.NoError(t, err)
	require.NotEmpty(t, s)

	s, err = Config{JWTSecret: "abc"}.Secret()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), s)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ROOMLY_JWT_SECRET", "s3cret")
	t.Setenv("ROOMLY_DEV_MODE", "true")
	t.Setenv("ROOMLY_BASE_URL", "")
	t.Setenv("ROOMLY_TZ", "America/New_York")

	cfg := ConfigFromEnv()
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.True(t, cfg.DevMode)
	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
	require.Equal(t, "America/New_York", cfg.TimeZone)
	require.Equal(t, "587", cfg.SMTPPort)
}

func signUp(t *testing.T, accounts *Accounts, email, role string) *user.User {
	t.Helper()
	u, err := accounts.SignUp(SignUpRequest{
		Name:                 "Test User",
		Email:                email,
		Password:             "password123",
		PasswordConfirmation: "password123",
		Role:                 role,
	})
	require.NoError(t, err)
	return u
}

func testAccounts(t *testing.T) (*Accounts, *Tokens) {
	t.Helper()
	tokens := NewTokens([]byte("test-secret"))
	accounts := NewAccounts(user.NewRepository(testDB(t)), tokens)
	accounts.cost = bcrypt.MinCost
	return accounts, tokens
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return d
}
