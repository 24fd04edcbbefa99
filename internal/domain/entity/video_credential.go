package entity

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantRole is the side of a video consultation a credential is scoped to
type ParticipantRole string

const (
	ParticipantPatient ParticipantRole = "PATIENT"
	ParticipantDoctor  ParticipantRole = "DOCTOR"
)

func (r ParticipantRole) Valid() bool {
	return r == ParticipantPatient || r == ParticipantDoctor
}

// VideoCredential is a time-limited join token for one (appointment, role) pair.
type VideoCredential struct {
	AppointmentID uuid.UUID       `json:"appointment_id"`
	Role          ParticipantRole `json:"role"`
	UID           uuid.UUID       `json:"uid"`
	Channel       string          `json:"channel"`
	Token         string          `json:"token"`
	IssuedAt      time.Time       `json:"issued_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// VideoChannel derives the channel both participants of an appointment join.
func VideoChannel(appointmentID uuid.UUID) string {
	return "appt-" + appointmentID.String()
}
