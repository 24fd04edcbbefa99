package repository

import (
	"context"
	"time"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
)

type DoctorShiftRepository interface {
	Create(ctx context.Context, shift *entity.DoctorShift) error
	FindByID(ctx context.Context, id int) (*entity.DoctorShift, error)
	FindByDoctorID(ctx context.Context, doctorID uuid.UUID) ([]entity.DoctorShift, error)
	FindByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]entity.DoctorShift, error)
	FindAll(ctx context.Context) ([]entity.DoctorShift, error)
	Update(ctx context.Context, shift *entity.DoctorShift) error
	Delete(ctx context.Context, id int) (int64, error)
}

// ScheduleProvider resolves the working shifts of a doctor on a calendar day.
type ScheduleProvider interface {
	GetShiftsForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]entity.Shift, error)
}
