package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type VideoCredentialRequest struct {
	Role string `json:"role" validate:"required,oneof=PATIENT DOCTOR"`
}

type EndVideoSessionRequest struct {
	Successful bool `json:"successful"`
}

// Response DTOs

type VideoCredentialResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Role          string    `json:"role"`
	UID           uuid.UUID `json:"uid"`
	Channel       string    `json:"channel"`
	Token         string    `json:"token"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}
