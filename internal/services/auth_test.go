package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotorcharter/internal/database"
	"rotorcharter/internal/domain"
	"rotorcharter/internal/logging"
	"rotorcharter/internal/util"
	apperrors "rotorcharter/pkg/errors"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db, err := database.Open("sqlite://:memory:", logging.Discard())
	require.NoError(t, err)
	require.NoError(t, database.MigrateUsers(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return NewAuthService(db, util.NewTokenIssuer("test-secret", time.Hour), logging.Discard())
}

func TestAuth_LoginAndAuthenticate(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, NewUser{
		Username: "dispatch",
		Email:    "Dispatch@Example.com",
		Password: "s3cret",
		FullName: "Dispatch Desk",
		IsStaff:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "dispatch@example.com", created.Email)
	assert.True(t, created.CanTriage())
	assert.False(t, created.IsAdmin)

	result, err := svc.Login(ctx, "dispatch", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "bearer", result.TokenType)
	assert.Equal(t, 3600, result.ExpiresIn)
	assert.NotEmpty(t, result.AccessToken)
	require.NotNil(t, result.User.LastLogin)

	user, err := svc.Authenticate(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestAuth_LoginFailures(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, NewUser{Username: "pilot", Email: "pilot@example.com", Password: "right"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "pilot", "wrong")
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = svc.Login(ctx, "nobody", "right")
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = svc.Login(ctx, "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []string{"username", "password"}, appErr.Fields)
}

func TestAuth_AuthenticateRejectsBadTokens(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "not-a-token")
	assert.True(t, apperrors.IsUnauthorized(err))

	foreign := util.NewTokenIssuer("other-secret", time.Hour)
	token, err := foreign.GenerateToken(&domain.User{Username: "ghost", IsStaff: true})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, token)
	assert.True(t, apperrors.IsUnauthorized(err))

	token, err = svc.tokens.GenerateToken(&domain.User{Username: "ghost", IsStaff: true})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, token)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestAuth_CreateUser(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	admin, err := svc.CreateUser(ctx, NewUser{Username: "chief", Email: "chief@example.com", Password: "pw", IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.IsStaff)
	assert.True(t, admin.IsActive)
	assert.NotEqual(t, "pw", admin.HashedPassword)

	_, err = svc.CreateUser(ctx, NewUser{Username: "chief", Email: "other@example.com", Password: "pw"})
	assert.Equal(t, apperrors.ErrCodeBadRequest, apperrors.CodeOf(err))

	_, err = svc.CreateUser(ctx, NewUser{Username: "x"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestHealth_Check(t *testing.T) {
	ok := PingFunc(func(ctx context.Context) error { return nil })
	down := PingFunc(func(ctx context.Context) error { return errors.New("dial tcp: refused") })

	healthy := NewHealthService("rotorcharter", "1.0.0", map[string]Pinger{"records": ok, "users": ok}).
		Check(context.Background())
	assert.True(t, healthy.Healthy())
	assert.Equal(t, map[string]string{"records": "ok", "users": "ok"}, healthy.Checks)

	degraded := NewHealthService("rotorcharter", "1.0.0", map[string]Pinger{"records": down, "users": ok}).
		Check(context.Background())
	assert.False(t, degraded.Healthy())
	assert.Equal(t, "degraded", degraded.Status)
	assert.Equal(t, "unavailable", degraded.Checks["records"])
}
