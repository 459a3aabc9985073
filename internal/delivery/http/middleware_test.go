package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgLog "github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func identityTestHandler(t *testing.T, secret string) (http.Handler, *string) {
	t.Helper()

	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	return Identity(secret, pkgLog.InitializeTestZapLogger())(inner), &seen
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestIdentityFromHeader(t *testing.T) {
	handler, seen := identityTestHandler(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "user-7")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-7", *seen)
}

func TestIdentityFromBearerToken(t *testing.T) {
	handler, seen := identityTestHandler(t, "secret")

	token := signToken(t, "secret", jwt.MapClaims{
		"user_id": "user-9",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-9", *seen)
}

func TestIdentityFromSubjectClaim(t *testing.T) {
	handler, seen := identityTestHandler(t, "secret")

	token := signToken(t, "secret", jwt.MapClaims{
		"sub": "user-11",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-11", *seen)
}

func TestIdentityRejectsBadSignature(t *testing.T) {
	handler, _ := identityTestHandler(t, "secret")

	token := signToken(t, "wrong-secret", jwt.MapClaims{
		"user_id": "user-9",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityRejectsAnonymous(t *testing.T) {
	handler, _ := identityTestHandler(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
