package entity

import (
	"time"

	"clinic-orchestrator/pkg/apperror"

	"github.com/google/uuid"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending     AppointmentStatus = "pending"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusCheckedIn   AppointmentStatus = "checked_in"
	AppointmentStatusUnderReview AppointmentStatus = "under_review"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusNoShow      AppointmentStatus = "no_show"
)

// AppointmentAction is an input of the appointment state machine.
type AppointmentAction string

const (
	ActionConfirm  AppointmentAction = "confirm"
	ActionCheckIn  AppointmentAction = "check_in"
	ActionReview   AppointmentAction = "review"
	ActionComplete AppointmentAction = "complete"
	ActionCancel   AppointmentAction = "cancel"
	ActionNoShow   AppointmentAction = "no_show"
)

// PaymentMethod is the tag recorded at booking time
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodQR   PaymentMethod = "QR"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodQR
}

var (
	ErrInvalidTransition = apperror.Precondition("invalid_transition", "appointment status does not allow this action")
	ErrAlreadyCheckedIn  = apperror.Precondition("already_checked_in", "appointment is already checked in")
	ErrAppointmentClosed = apperror.Precondition("appointment_closed", "appointment is already closed")
)

// transitions lists, per action, the statuses it may start from and where it leads.
var transitions = map[AppointmentAction]struct {
	from []AppointmentStatus
	to   AppointmentStatus
}{
	ActionConfirm:  {from: []AppointmentStatus{AppointmentStatusPending}, to: AppointmentStatusConfirmed},
	ActionCheckIn:  {from: []AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed}, to: AppointmentStatusCheckedIn},
	ActionReview:   {from: []AppointmentStatus{AppointmentStatusConfirmed, AppointmentStatusCheckedIn}, to: AppointmentStatusUnderReview},
	ActionComplete: {from: []AppointmentStatus{AppointmentStatusUnderReview, AppointmentStatusCheckedIn}, to: AppointmentStatusCompleted},
	ActionCancel:   {from: []AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusUnderReview}, to: AppointmentStatusCancelled},
	ActionNoShow:   {from: []AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed}, to: AppointmentStatusNoShow},
}

// NextStatus is the single transition function of the appointment lifecycle.
// Time windows are evaluated by the caller; this only decides status legality.
func NextStatus(current AppointmentStatus, action AppointmentAction) (AppointmentStatus, error) {
	rule, ok := transitions[action]
	if !ok {
		return current, ErrInvalidTransition
	}
	for _, s := range rule.from {
		if s == current {
			return rule.to, nil
		}
	}

	switch {
	case current.IsTerminal():
		return current, ErrAppointmentClosed
	case current == AppointmentStatusCheckedIn && (action == ActionCancel || action == ActionCheckIn):
		return current, ErrAlreadyCheckedIn
	}
	return current, ErrInvalidTransition
}

func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Appointment is the single source of truth for a patient visit.
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	ServiceID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"service_id"`
	ScheduledAt     time.Time         `gorm:"not null;index" json:"scheduled_at"`
	EndsAt          time.Time         `gorm:"not null" json:"ends_at"`
	DurationMinutes int               `gorm:"not null" json:"duration_minutes"`
	IsOnline        bool              `gorm:"not null;default:false" json:"is_online"`
	IsAnonymous     bool              `gorm:"not null;default:false" json:"is_anonymous"`
	PaymentMethod   PaymentMethod     `gorm:"type:varchar(10);not null" json:"payment_method"`
	IsPaid          bool              `gorm:"not null;default:false" json:"is_paid"`
	PaidAt          *time.Time        `json:"paid_at,omitempty"`
	CheckedIn       bool              `gorm:"not null;default:false" json:"checked_in"`
	CheckedInAt     *time.Time        `json:"checked_in_at,omitempty"`
	Symptoms        string            `gorm:"type:text" json:"symptoms,omitempty"`
	MedicalHistory  string            `gorm:"type:text" json:"medical_history,omitempty"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	Vitals          string            `gorm:"type:text" json:"vitals,omitempty"`
	DoctorNotes     string            `gorm:"type:text" json:"doctor_notes,omitempty"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	LabStatus       *LabRequestStatus `gorm:"type:varchar(20)" json:"lab_status,omitempty"`
	CancelReason    string            `gorm:"type:text" json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor  DoctorProfile `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Patient User          `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Service ClinicService `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// OccupiesSlot reports whether the appointment blocks its time range for the doctor.
func (a *Appointment) OccupiesSlot() bool {
	return a.Status != AppointmentStatusCancelled
}

// Overlaps reports whether [start, end) intersects the appointment's range.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.ScheduledAt.Before(end) && start.Before(a.EndsAt)
}

// IsParticipant reports whether userID is the patient or the doctor of the appointment.
func (a *Appointment) IsParticipant(userID uuid.UUID) bool {
	return a.PatientID == userID || a.DoctorID == userID
}

// IsActiveOnline reports whether a video consultation may still take place.
func (a *Appointment) IsActiveOnline() bool {
	return a.IsOnline && !a.Status.IsTerminal()
}
