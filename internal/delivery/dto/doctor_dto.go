package dto

import (
	"github.com/google/uuid"
)

// Response DTOs

type DoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	LicenseNumber  string    `json:"license_number"`
	Specialization string    `json:"specialization"`
	Biography      string    `json:"biography,omitempty"`
	IsActive       bool      `json:"is_active"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
