package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alphabatem/common/context"
)

const operatorIssuer = "guessword"

// JWTService signs and checks operator tokens. With OPERATOR_JWT_SECRET unset
// operator auth is disabled.
type JWTService struct {
	context.DefaultService

	AccessTokenDuration time.Duration
	jwtSecretKey        string
}

type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

const (
	JWT_SVC = "jwt_svc"

	operatorRole = "operator"
)

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{jwtSecretKey: secret, AccessTokenDuration: ttl}
}

func (svc JWTService) Id() string {
	return JWT_SVC
}

func (svc *JWTService) Configure(ctx *context.Context) error {
	var cfg OperatorConfig
	if err := ParseEnv(&cfg); err != nil {
		return err
	}
	svc.AccessTokenDuration = cfg.TokenTTL
	svc.jwtSecretKey = cfg.JWTSecret
	return svc.DefaultService.Configure(ctx)
}

func (svc *JWTService) Start() error {
	return nil
}

func (svc *JWTService) Enabled() bool {
	return svc != nil && svc.jwtSecretKey != ""
}

// Issue signs an operator token for subject.
func (svc *JWTService) Issue(subject string) (string, time.Time, error) {
	if !svc.Enabled() {
		return "", time.Time{}, errors.New("operator auth is disabled")
	}

	now := time.Now()
	expTime := now.Add(svc.AccessTokenDuration)
	claims := &OperatorClaims{
		Role: operatorRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    operatorIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(svc.jwtSecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %v", err)
	}
	return tokenString, expTime, nil
}

// VerifyToken returns the subject of a valid, unexpired operator token.
func (svc *JWTService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, svc.getJWTKey,
		jwt.WithIssuer(operatorIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid || claims.Role != operatorRole {
		return "", errors.New("unsupported JWT format")
	}
	return claims.Subject, nil
}

func (svc *JWTService) getJWTKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return []byte(svc.jwtSecretKey), nil
}

func (svc *JWTService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", errors.New("invalid authorization header format")
	}

	return authHeader[7:], nil
}
