package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/miapp/shop/internal/tokens"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{Repo: newTestRepo(t), JWTSecret: testJWTSecret, Events: NopPublisher{}}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	userID, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, userID)

	res, err := svc.Login(ctx, "ana@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, userID, res.UserID)
	require.Equal(t, "Ana", res.Name)
	require.Equal(t, "ana@example.com", res.Email)
	require.NotEmpty(t, res.Token)
	require.WithinDuration(t, time.Now().Add(tokens.TTL), res.ExpiresAt, 2*time.Second)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Otra Ana", "ana@example.com", "different")
	require.ErrorIs(t, err, ErrConflict)
}

func TestRegisterEmptyFields(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	for _, tc := range []struct {
		name, email, password string
	}{
		{"", "ana@example.com", "secret123"},
		{"Ana", "", "secret123"},
		{"Ana", "ana@example.com", ""},
	} {
		_, err := svc.Register(ctx, tc.name, tc.email, tc.password)
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "ana@example.com", "not-the-password")
	_, unknownEmail := svc.Login(ctx, "nobody@example.com", "secret123")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthorize(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	userID, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "ana@example.com", "secret123")
	require.NoError(t, err)

	claims, err := svc.Authorize(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, userID.String(), claims.Subject)
	require.Equal(t, "ana@example.com", claims.Email)
}

func TestAuthorizeMissingToken(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Authorize(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthorizeExpiredToken(t *testing.T) {
	svc := newAuthService(t)

	// Valid signature, expiry in the past.
	expired, _, err := tokens.NewSessionToken(uuid.NewString(), "ana@example.com", "Ana", testJWTSecret, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = svc.Authorize(context.Background(), expired)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestProfile(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	userID, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123")
	require.NoError(t, err)

	user, err := svc.Profile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "Ana", user.Name)

	// The hash never leaves the server in a serialized view.
	data, err := json.Marshal(user)
	require.NoError(t, err)
	require.NotContains(t, string(data), user.PasswordHash)

	_, err = svc.Profile(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
