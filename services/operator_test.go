package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTIssueAndVerify(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)

	token, expiresAt, err := svc.Issue("station-operator")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	subject, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "station-operator", subject)
}

func TestJWTRejectsBadTokens(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)

	other, _, err := NewJWTService("another-secret-another-secret-xx", time.Hour).Issue("x")
	require.NoError(t, err)
	_, err = svc.VerifyToken(other)
	assert.Error(t, err)

	expired, _, err := NewJWTService(testSecret, -time.Minute).Issue("x")
	require.NoError(t, err)
	_, err = svc.VerifyToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noRole := jwt.NewWithClaims(jwt.SigningMethodHS256, &OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    operatorIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := noRole.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.VerifyToken(signed)
	assert.Error(t, err)
}

func TestJWTDisabled(t *testing.T) {
	svc := NewJWTService("", time.Hour)
	assert.False(t, svc.Enabled())

	_, _, err := svc.Issue("x")
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)

	token, err := svc.ExtractTokenFromHeader("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	for _, header := range []string{"", "Basic abc", "Bearer"} {
		_, err := svc.ExtractTokenFromHeader(header)
		assert.Error(t, err, header)
	}
}

func TestOperatorLogin(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	jwtSvc := NewJWTService(testSecret, time.Hour)
	svc := NewAuthService(hash, jwtSvc)
	require.True(t, svc.Enabled())

	resp, err := svc.Login(dto.OperatorLoginRequest{Password: "correct horse battery"})
	require.NoError(t, err)
	subject, err := jwtSvc.VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, operatorSubject, subject)

	_, err = svc.Login(dto.OperatorLoginRequest{Password: "wrong horse battery"})
	requireAppError(t, err, 401, shared.ErrUnauthorized)

	_, err = svc.Login(dto.OperatorLoginRequest{Password: "short"})
	requireAppError(t, err, 400, shared.ErrValidation)
}

func TestOperatorLoginDisabled(t *testing.T) {
	svc := NewAuthService("", NewJWTService(testSecret, time.Hour))
	assert.False(t, svc.Enabled())

	_, err := svc.Login(dto.OperatorLoginRequest{Password: "correct horse battery"})
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode)
}
