package schedule

import (
	"context"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/repository"
	"clinic-orchestrator/pkg/apperror"

	"github.com/google/uuid"
)

type dbProvider struct {
	shiftRepo repository.DoctorShiftRepository
	loc       *time.Location
}

// NewDBProvider reads shifts from the doctor_shifts table.
func NewDBProvider(shiftRepo repository.DoctorShiftRepository, loc *time.Location) repository.ScheduleProvider {
	return &dbProvider{shiftRepo: shiftRepo, loc: loc}
}

func (p *dbProvider) GetShiftsForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]entity.Shift, error) {
	rows, err := p.shiftRepo.FindByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, apperror.Upstream("schedule_unavailable", "could not load doctor schedule", err)
	}

	shifts := make([]entity.Shift, 0, len(rows))
	for i := range rows {
		shift, err := rows[i].Resolve(date, p.loc)
		if err != nil {
			return nil, apperror.Upstream("schedule_invalid", "doctor schedule contains an invalid shift", err)
		}
		shifts = append(shifts, shift)
	}
	return shifts, nil
}
