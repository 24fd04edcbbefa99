package repository

import (
	"context"
	"time"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
)

// StatusChange is a compare-and-swap on the appointment status.
// Fields are written together with the new status; SpawnLab, when set, is inserted
// in the same transaction.
type StatusChange struct {
	AppointmentID uuid.UUID
	From          entity.AppointmentStatus
	To            entity.AppointmentStatus
	Fields        map[string]interface{}
	SpawnLab      *entity.LabRequest
}

type AppointmentRepository interface {
	// CreateIfSlotFree inserts the appointment (and lab, if non-nil) only when no active
	// appointment of the same doctor overlaps it. Returns ErrSlotTaken otherwise.
	CreateIfSlotFree(ctx context.Context, appointment *entity.Appointment, lab *entity.LabRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	FindActiveByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error)
	FindAll(ctx context.Context, filter entity.AppointmentFilter) ([]entity.Appointment, error)
	FindOverdue(ctx context.Context, before time.Time, limit int) ([]entity.Appointment, error)
	ApplyTransition(ctx context.Context, change StatusChange) error
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
	UpdateLabStatus(ctx context.Context, id uuid.UUID, status entity.LabRequestStatus) error
}
