package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	id := uuid.New()
	token, err := GenerateJWT("secret", id, "0xabc", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.ControllerID)
	assert.Equal(t, "0xabc", claims.Address)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestParseJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret", uuid.New(), "0xabc", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT("other", token)
	assert.Error(t, err)
}

func TestParseJWT_Expired(t *testing.T) {
	claims := Claims{
		ControllerID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseJWT("secret", token)
	assert.Error(t, err)
}

func TestParseJWT_RejectsForeignIssuerAndMissingController(t *testing.T) {
	foreign := Claims{
		ControllerID:     uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, foreign).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseJWT("secret", token)
	assert.Error(t, err)

	empty := Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, empty).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseJWT("secret", token)
	assert.Error(t, err)
}

func TestParseJWT_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{ControllerID: uuid.New(), RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseJWT("secret", token)
	assert.Error(t, err)
}
