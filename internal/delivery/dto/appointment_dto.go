package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookAppointmentRequest struct {
	DoctorID       uuid.UUID `json:"doctor_id" validate:"required"`
	ServiceID      uuid.UUID `json:"service_id" validate:"required"`
	Date           string    `json:"date" validate:"required"`       // Format: YYYY-MM-DD
	StartTime      string    `json:"start_time" validate:"required"` // Format: HH:MM
	IsOnline       bool      `json:"is_online"`
	IsAnonymous    bool      `json:"is_anonymous"`
	PaymentMethod  string    `json:"payment_method" validate:"required,oneof=CASH QR"`
	Symptoms       string    `json:"symptoms" validate:"omitempty,max=2000"`
	MedicalHistory string    `json:"medical_history" validate:"omitempty,max=4000"`
	Notes          string    `json:"notes" validate:"omitempty,max=2000"`
	// AutoConfirm defaults to true; false leaves the appointment PENDING for the front desk.
	AutoConfirm *bool `json:"auto_confirm,omitempty"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type ReviewAppointmentRequest struct {
	Vitals string `json:"vitals" validate:"omitempty,max=2000"`
	Notes  string `json:"notes" validate:"omitempty,max=4000"`
}

type CompleteAppointmentRequest struct {
	DoctorNotes string `json:"doctor_notes" validate:"omitempty,max=4000"`
}

// AppointmentFilterRequest is decoded from query parameters.
type AppointmentFilterRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=pending confirmed checked_in under_review completed cancelled no_show"`
	From   string `json:"from" validate:"omitempty"` // Format: YYYY-MM-DD
	To     string `json:"to" validate:"omitempty"`   // Format: YYYY-MM-DD
}

// Response DTOs

type AppointmentResponse struct {
	ID              uuid.UUID       `json:"id"`
	DoctorID        uuid.UUID       `json:"doctor_id"`
	Doctor          *DoctorResponse `json:"doctor,omitempty"`
	PatientID       uuid.UUID       `json:"patient_id"`
	PatientName     string          `json:"patient_name,omitempty"`
	ServiceID       uuid.UUID       `json:"service_id"`
	ServiceName     string          `json:"service_name,omitempty"`
	ScheduledAt     time.Time       `json:"scheduled_at"`
	EndsAt          time.Time       `json:"ends_at"`
	DurationMinutes int             `json:"duration_minutes"`
	IsOnline        bool            `json:"is_online"`
	IsAnonymous     bool            `json:"is_anonymous"`
	PaymentMethod   string          `json:"payment_method"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CheckedIn       bool            `json:"checked_in"`
	CheckedInAt     *time.Time      `json:"checked_in_at,omitempty"`
	Symptoms        string          `json:"symptoms,omitempty"`
	MedicalHistory  string          `json:"medical_history,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Vitals          string          `json:"vitals,omitempty"`
	DoctorNotes     string          `json:"doctor_notes,omitempty"`
	Status          string          `json:"status"`
	LabStatus       string          `json:"lab_status,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
