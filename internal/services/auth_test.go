package services_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/cache"
	"fhirfly-backend/internal/models"
	"fhirfly-backend/internal/services"
	"fhirfly-backend/internal/sessions"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuth(t *testing.T, ttl time.Duration) *services.AuthService {
	t.Helper()
	svc, err := services.NewAuthService(services.AuthConfig{
		Secret:            "test-secret",
		TokenTTL:          ttl,
		ClinicianEmail:    "clinician@example.com",
		ClinicianPassword: "Password123!",
	}, sessions.NewStore(cache.NewMemory()), zap.NewNop())
	require.NoError(t, err)
	return svc
}

func status(err error) int {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr.HTTPStatus
	}
	return 0
}

func TestLogin(t *testing.T) {
	auth := newAuth(t, time.Hour)
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		resp, err := auth.Login(ctx, " 12345678901234 ")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, models.User{AbhaID: "12345678901234", Name: "User 1234", Role: models.RoleABHA}, resp.User)
		assert.Greater(t, resp.ExpiresAt, time.Now().UnixMilli())

		user, err := auth.Authenticate(ctx, resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.User, *user)
	})

	t.Run("exactly ten characters", func(t *testing.T) {
		resp, err := auth.Login(ctx, "1234567890")
		require.NoError(t, err)
		assert.Equal(t, "User 7890", resp.User.Name)
	})

	t.Run("short", func(t *testing.T) {
		_, err := auth.Login(ctx, "123456789")
		assert.Equal(t, http.StatusUnauthorized, status(err))
		assert.Equal(t, "Invalid ABHA ID", apperrors.GetAppError(err).Message)
	})

	t.Run("multibyte counts characters", func(t *testing.T) {
		_, err := auth.Login(ctx, "अअअअ")
		assert.Equal(t, http.StatusUnauthorized, status(err))

		resp, err := auth.Login(ctx, "अआइईउऊऋएऐओ")
		require.NoError(t, err)
		assert.Equal(t, "User ऋएऐओ", resp.User.Name)
		assert.True(t, utf8.ValidString(resp.User.Name))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := auth.Login(ctx, "   ")
		assert.Equal(t, http.StatusBadRequest, status(err))
	})
}

func TestAuthenticateAcceptsAnySchemeCase(t *testing.T) {
	auth := newAuth(t, time.Hour)
	ctx := context.Background()

	resp, err := auth.Login(ctx, "12345678901234")
	require.NoError(t, err)

	for _, header := range []string{"Bearer " + resp.Token, "bearer " + resp.Token, "BEARER  " + resp.Token} {
		user, err := auth.Authenticate(ctx, header)
		require.NoError(t, err, header)
		assert.Equal(t, "12345678901234", user.AbhaID)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	auth := newAuth(t, time.Hour)
	ctx := context.Background()

	resp, err := auth.Login(ctx, "12345678901234")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, "Bearer "+resp.Token))
	_, err = auth.Authenticate(ctx, resp.Token)
	assert.Equal(t, http.StatusUnauthorized, status(err))

	// idempotent
	assert.NoError(t, auth.Logout(ctx, resp.Token))
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	auth := newAuth(t, time.Hour)
	ctx := context.Background()

	for _, token := range []string{"", "Bearer ", "dummy-token-1700000000000", "a.b.c"} {
		_, err := auth.Authenticate(ctx, token)
		assert.Equal(t, http.StatusUnauthorized, status(err), token)
	}

	// signed with another secret
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, services.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "x", Subject: "12345678901234"},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, forged)
	assert.Equal(t, http.StatusUnauthorized, status(err))

	// "none" algorithm
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, services.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "x"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, unsigned)
	assert.Equal(t, http.StatusUnauthorized, status(err))
}

func TestExpiredToken(t *testing.T) {
	auth := newAuth(t, time.Millisecond)
	ctx := context.Background()

	resp, err := auth.Login(ctx, "12345678901234")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = auth.Authenticate(ctx, resp.Token)
	require.Equal(t, http.StatusUnauthorized, status(err))
}

func TestLoginClinician(t *testing.T) {
	auth := newAuth(t, time.Hour)
	ctx := context.Background()

	resp, err := auth.LoginClinician(ctx, models.ClinicianLoginRequest{
		Email:    models.StringPtr("Clinician@example.com"),
		Password: models.StringPtr("Password123!"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleClinician, resp.User.Role)
	assert.Equal(t, "CLINICIAN", resp.User.AbhaID)
	assert.Equal(t, 35, resp.User.Age)

	_, err = auth.LoginClinician(ctx, models.ClinicianLoginRequest{
		Email:    models.StringPtr("clinician@example.com"),
		Password: models.StringPtr("wrong"),
	})
	assert.Equal(t, http.StatusUnauthorized, status(err))

	_, err = auth.LoginClinician(ctx, models.ClinicianLoginRequest{Email: models.StringPtr("clinician@example.com")})
	assert.Equal(t, http.StatusUnauthorized, status(err))

	demo, err := auth.LoginClinician(ctx, models.ClinicianLoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Clinician", demo.User.Name)
	assert.Equal(t, 3, len(strings.Split(demo.Token, ".")))
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	_, err := services.NewAuthService(services.AuthConfig{TokenTTL: time.Hour}, sessions.NewStore(cache.NewMemory()), zap.NewNop())
	assert.Error(t, err)
}
