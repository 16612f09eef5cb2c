package dto

import (
	"strings"
	"time"
)

// StartRequest registers a player. Either a phone number or an email address
// is the contact; the phone form wins when both are given.
type StartRequest struct {
	Handle string `json:"handle" validate:"required,max=100"`
	Phone  string `json:"phone" validate:"required_without=Email,omitempty,phone"`
	Email  string `json:"email" validate:"required_without=Phone,omitempty,email"`
}

func (r *StartRequest) Normalize() {
	r.Handle = strings.TrimSpace(r.Handle)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
}

func (r StartRequest) Validate() error {
	return GetValidator().Struct(r)
}

func (r StartRequest) Contact() string {
	if r.Phone != "" {
		return r.Phone
	}
	return r.Email
}

type StartResponse struct {
	SessionID string    `json:"session_id"`
	Handle    string    `json:"handle"`
	StartedAt time.Time `json:"started_at"`
	Status    string    `json:"status"`
}

type VerifyRequest struct {
	Guess string `json:"guess" validate:"required,max=200"`
}

func (r VerifyRequest) Validate() error {
	return GetValidator().Struct(r)
}

type VerifyResponse struct {
	Correct bool `json:"correct"`
}

type AskRequest struct {
	Question string `json:"question" validate:"required,max=1000"`
}

func (r AskRequest) Validate() error {
	return GetValidator().Struct(r)
}

// AskResponse is returned for every question. Degraded is set when the
// oracle could not answer and Reply holds the fallback message.
type AskResponse struct {
	Reply    string `json:"reply"`
	Degraded bool   `json:"degraded"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
