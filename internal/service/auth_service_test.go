package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ardiwn/gymflow-api/internal/models"
	appErrors "github.com/ardiwn/gymflow-api/pkg/errors"
)

type mockUserRepo struct {
	user           *models.User
	lastLoginCalls int
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	m.lastLoginCalls++
	return nil
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "member@gym.dev",
		FullName:     "Member One",
		PasswordHash: string(hash),
		Role:         models.RoleMember,
		Active:       true,
	}
}

func newAuthFixture(repo *mockUserRepo) *AuthService {
	return NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "gymflow-test",
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockUserRepo{user: testUser(t, "s3cret")}
	svc := newAuthFixture(repo)

	result, err := svc.Login(context.Background(), models.LoginRequest{Email: "member@gym.dev", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "user-1", result.User.ID)
	assert.Equal(t, models.RoleMember, result.User.Role)
	assert.Equal(t, 1, repo.lastLoginCalls)

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleMember, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newAuthFixture(&mockUserRepo{user: testUser(t, "s3cret")})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "member@gym.dev", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := newAuthFixture(&mockUserRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@gym.dev", Password: "s3cret"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "s3cret")
	user.Active = false
	svc := newAuthFixture(&mockUserRepo{user: user})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "member@gym.dev", Password: "s3cret"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceCurrentUser(t *testing.T) {
	svc := newAuthFixture(&mockUserRepo{user: testUser(t, "s3cret")})

	user, err := svc.CurrentUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "member@gym.dev", user.Email)
	assert.Equal(t, "Member One", user.FullName)
	assert.Equal(t, models.RoleMember, user.Role)
}

func TestAuthServiceCurrentUserDeactivated(t *testing.T) {
	user := testUser(t, "s3cret")
	user.Active = false
	svc := newAuthFixture(&mockUserRepo{user: user})

	_, err := svc.CurrentUser(context.Background(), "user-1")
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceCurrentUserMissing(t *testing.T) {
	svc := newAuthFixture(&mockUserRepo{})

	_, err := svc.CurrentUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenGarbage(t *testing.T) {
	svc := newAuthFixture(&mockUserRepo{})

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenWrongSecret(t *testing.T) {
	repo := &mockUserRepo{user: testUser(t, "s3cret")}
	issuing := newAuthFixture(repo)

	result, err := issuing.Login(context.Background(), models.LoginRequest{Email: "member@gym.dev", Password: "s3cret"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{TokenSecret: "different", TokenExpiry: time.Hour})
	_, err = other.ValidateToken(result.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
