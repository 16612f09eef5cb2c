package dto

import "time"

type OperatorLoginRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (r OperatorLoginRequest) Validate() error {
	return GetValidator().Struct(r)
}

type OperatorLoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
