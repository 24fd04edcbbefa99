package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateShiftRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	ShiftDate string    `json:"shift_date" validate:"required"` // Format: YYYY-MM-DD
	StartTime string    `json:"start_time" validate:"required"` // Format: HH:MM
	EndTime   string    `json:"end_time" validate:"required"`   // Format: HH:MM
}

type UpdateShiftRequest struct {
	ShiftDate string `json:"shift_date" validate:"omitempty"`
	StartTime string `json:"start_time" validate:"omitempty"`
	EndTime   string `json:"end_time" validate:"omitempty"`
}

// Response DTOs

type ShiftResponse struct {
	ID        int             `json:"id"`
	DoctorID  uuid.UUID       `json:"doctor_id"`
	Doctor    *DoctorResponse `json:"doctor,omitempty"`
	ShiftDate string          `json:"shift_date"`
	StartTime string          `json:"start_time"`
	EndTime   string          `json:"end_time"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ShiftListResponse struct {
	Shifts []ShiftResponse `json:"shifts"`
	Total  int             `json:"total"`
}
