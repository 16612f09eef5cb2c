package services

import (
	"errors"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	AUTH_SVC = "auth_svc"

	operatorSubject = "station-operator"
)

// AuthService exchanges the operator password for a token.
type AuthService struct {
	context.DefaultService

	passwordHash string
	jwtSvc       *JWTService
}

func NewAuthService(passwordHash string, jwtSvc *JWTService) *AuthService {
	return &AuthService{passwordHash: passwordHash, jwtSvc: jwtSvc}
}

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	var cfg OperatorConfig
	if err := ParseEnv(&cfg); err != nil {
		return err
	}
	svc.passwordHash = cfg.PasswordHash
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	if svc.Enabled() {
		log.Info("Operator auth enabled")
	} else {
		log.Warn("Operator auth disabled, distribution start is open")
	}
	return nil
}

func (svc *AuthService) Enabled() bool {
	return svc.passwordHash != "" && svc.jwtSvc.Enabled()
}

func (svc *AuthService) Login(req dto.OperatorLoginRequest) (*dto.OperatorLoginResponse, error) {
	if !svc.Enabled() {
		return nil, shared.NewNotFoundError(errors.New("operator auth disabled"), "Operator login is not enabled")
	}
	if err := req.Validate(); err != nil {
		return nil, shared.NewValidationError(err, dto.FormatValidationErrors(err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(svc.passwordHash), []byte(req.Password)); err != nil {
		log.Warn("Rejected operator login")
		return nil, shared.NewUnauthorizedError(shared.ErrUnauthorized, "Invalid operator password")
	}

	token, expiresAt, err := svc.jwtSvc.Issue(operatorSubject)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue token")
	}
	return &dto.OperatorLoginResponse{AccessToken: token, ExpiresAt: expiresAt}, nil
}

// HashPassword returns the bcrypt hash to put in OPERATOR_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
