package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aves/lms-app/internal/domain"
)

const testSecret = "test-secret"

func newTestAuthService(repo *fakeUserRepo) AuthService {
	return NewAuthService(repo, testSecret, time.Hour)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	user, err := svc.Register(ctx, "Ada", "ada@example.com", "Str0ng!pass", domain.RoleStudent)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, domain.RoleStudent, user.Role)
	assert.Empty(t, user.PasswordHash, "hash must not leak out of the service")

	stored, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "Str0ng!pass", stored.PasswordHash, "password must be stored hashed")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "Str0ng!pass", domain.RoleStudent)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Eve", "ada@example.com", "Oth3r!pass", domain.RoleTeacher)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterWeakPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newFakeUserRepo())

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "empty", password: "", wantErr: ErrPasswordRequired},
		{name: "too short", password: "Ab1!", wantErr: ErrPasswordTooShort},
		{name: "one class only", password: "aaaaaaaaaa", wantErr: ErrPasswordTooWeak},
		{name: "two classes", password: "aaaaaaaa11", wantErr: ErrPasswordTooWeak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, "Ada", "weak@example.com", tt.password, domain.RoleStudent)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "Str0ng!pass", domain.RoleStudent)
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "ada@example.com", "Str0ng!pass", domain.RoleStudent)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleStudent, claims.Role)
	assert.NotZero(t, claims.LoginTime)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "Str0ng!pass", domain.RoleStudent)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong-password", domain.RoleStudent)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginUnknownEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newFakeUserRepo())

	_, _, err := svc.Login(ctx, "nobody@example.com", "whatever", domain.RoleStudent)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginRoleMismatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "Str0ng!pass", domain.RoleStudent)
	require.NoError(t, err)

	// A student through the teacher door fails exactly like bad
	// credentials, leaking nothing about the account.
	_, _, err = svc.Login(ctx, "ada@example.com", "Str0ng!pass", domain.RoleTeacher)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginAdminAnyRolePage(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Register(ctx, "Root", "root@example.com", "Sup3r!pass", domain.RoleAdmin)
	require.NoError(t, err)

	for _, page := range []domain.Role{domain.RoleStudent, domain.RoleTeacher, domain.RoleAdmin} {
		_, user, err := svc.Login(ctx, "root@example.com", "Sup3r!pass", page)
		require.NoError(t, err, "admin login via %s page", page)
		assert.Equal(t, domain.RoleAdmin, user.Role)
	}
}

func TestIssueSessionTokenPreservesLoginTime(t *testing.T) {
	user := &domain.User{ID: 7, Email: "x@example.com", Name: "X", Role: domain.RoleTeacher}
	loginAt := time.Now().Add(-2 * time.Hour)

	token, err := IssueSessionToken(user, testSecret, time.Hour, loginAt)
	require.NoError(t, err)

	claims := &SessionClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, loginAt.Unix(), claims.LoginTime)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}
