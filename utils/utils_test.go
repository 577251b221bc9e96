package utils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateJWT("64b7f0c2a1b2c3d4e5f60718", "Asha", "officer")
	require.NoError(t, err)

	claims, err := m.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.UserID)
	assert.Equal(t, "Asha", claims.Name)
	assert.Equal(t, "officer", claims.Role)
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	other, err := NewJWTManager("other", time.Hour).GenerateJWT("u1", "A", "officer")
	require.NoError(t, err)
	_, err = m.ValidateJWT(other)
	assert.Error(t, err, "wrong secret")

	expired, err := NewJWTManager("secret", -time.Minute).GenerateJWT("u1", "A", "officer")
	require.NoError(t, err)
	_, err = m.ValidateJWT(expired)
	assert.Error(t, err, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.ValidateJWT(unsigned)
	assert.Error(t, err, "alg none")

	_, err = m.ValidateJWT("garbage")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("secret1", hash))
	assert.False(t, CheckPasswordHash("secret2", hash))
}

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, 404, "Asset not found")

	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Asset not found", body["error"])
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Name string }
	require.NoError(t, DecodeJSON(strings.NewReader(`{"Name":"x"}`), &v))
	assert.Equal(t, "x", v.Name)

	assert.EqualError(t, DecodeJSON(strings.NewReader(""), &v), "request body is empty")
	assert.Error(t, DecodeJSON(strings.NewReader(`{"Name":"x"} {}`), &v))
	assert.Error(t, DecodeJSON(strings.NewReader(`{"Name":`), &v))
}
