package usecase

import (
	"context"
	"sort"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/repository"
	"clinic-orchestrator/internal/domain/window"
	"clinic-orchestrator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

var (
	ErrDoctorNotFound   = apperror.NotFound("doctor_not_found", "doctor not found")
	ErrDoctorInactive   = apperror.Validation("doctor_inactive", "doctor is not accepting appointments")
	ErrServiceNotFound  = apperror.NotFound("service_not_found", "service not found")
	ErrServiceInactive  = apperror.Validation("service_inactive", "service is not available")
	ErrInvalidDate      = apperror.Validation("invalid_date", "invalid date format, use YYYY-MM-DD")
	ErrSlotNotOffered   = apperror.Validation("slot_not_offered", "the requested time is not a slot of this doctor and service")
	ErrSlotAlreadyTaken = apperror.Conflict("slot_already_booked", "this slot has already been booked, please pick another slot")
	ErrSlotInPast       = apperror.Precondition("slot_in_past", "this slot has already started")
)

type SlotUsecase interface {
	// ComputeSlots lists every increment of the doctor's shifts on date, unavailable ones included.
	ComputeSlots(ctx context.Context, doctorID, serviceID uuid.UUID, date string) ([]entity.Slot, error)
	// CheckBookable verifies that start is an available slot of service right now.
	CheckBookable(ctx context.Context, doctorID uuid.UUID, service *entity.ClinicService, start time.Time) error
	Lookup(ctx context.Context, doctorID, serviceID uuid.UUID) (*entity.DoctorProfile, *entity.ClinicService, error)
}

type slotUsecase struct {
	log              *logrus.Logger
	clock            window.Clock
	loc              *time.Location
	doctorRepo       repository.DoctorProfileRepository
	serviceRepo      repository.ClinicServiceRepository
	appointmentRepo  repository.AppointmentRepository
	scheduleProvider repository.ScheduleProvider
}

func NewSlotUsecase(
	log *logrus.Logger,
	clock window.Clock,
	loc *time.Location,
	doctorRepo repository.DoctorProfileRepository,
	serviceRepo repository.ClinicServiceRepository,
	appointmentRepo repository.AppointmentRepository,
	scheduleProvider repository.ScheduleProvider,
) SlotUsecase {
	return &slotUsecase{
		log:              log,
		clock:            clock,
		loc:              loc,
		doctorRepo:       doctorRepo,
		serviceRepo:      serviceRepo,
		appointmentRepo:  appointmentRepo,
		scheduleProvider: scheduleProvider,
	}
}

func (u *slotUsecase) Lookup(ctx context.Context, doctorID, serviceID uuid.UUID) (*entity.DoctorProfile, *entity.ClinicService, error) {
	doctor, err := u.doctorRepo.FindByUserID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, nil, err
	}
	if doctor == nil {
		return nil, nil, ErrDoctorNotFound
	}
	if !doctor.IsBookable() {
		return nil, nil, ErrDoctorInactive
	}

	service, err := u.serviceRepo.FindByID(ctx, serviceID)
	if err != nil {
		u.log.Warnf("Failed to find service %s: %+v", serviceID, err)
		return nil, nil, err
	}
	if service == nil {
		return nil, nil, ErrServiceNotFound
	}
	if !service.IsActive || service.DurationMinutes <= 0 {
		return nil, nil, ErrServiceInactive
	}
	return doctor, service, nil
}

func (u *slotUsecase) ComputeSlots(ctx context.Context, doctorID, serviceID uuid.UUID, date string) ([]entity.Slot, error) {
	day, err := time.ParseInLocation(dateLayout, date, u.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}

	_, service, err := u.Lookup(ctx, doctorID, serviceID)
	if err != nil {
		return nil, err
	}

	return u.compute(ctx, doctorID, service, day)
}

func (u *slotUsecase) compute(ctx context.Context, doctorID uuid.UUID, service *entity.ClinicService, day time.Time) ([]entity.Slot, error) {
	shifts, err := u.scheduleProvider.GetShiftsForDate(ctx, doctorID, day)
	if err != nil {
		if apperror.KindOf(err) == "" {
			err = apperror.Upstream("schedule_unavailable", "could not reach schedule service", err)
		}
		u.log.Warnf("Failed to get shifts for doctor %s on %s: %+v", doctorID, day.Format(dateLayout), err)
		return nil, err
	}

	slots := make([]entity.Slot, 0)
	if len(shifts) == 0 {
		return slots, nil
	}

	from, to := shifts[0].Start, shifts[0].End
	for _, s := range shifts[1:] {
		if s.Start.Before(from) {
			from = s.Start
		}
		if s.End.After(to) {
			to = s.End
		}
	}

	booked, err := u.appointmentRepo.FindActiveByDoctorBetween(ctx, doctorID, from, to)
	if err != nil {
		u.log.Warnf("Failed to load appointments for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	now := u.clock.Now()
	duration := service.Duration()
	seen := make(map[int64]bool)

	for _, shift := range shifts {
		for start := shift.Start; !start.Add(duration).After(shift.End); start = start.Add(duration) {
			if seen[start.Unix()] {
				continue
			}
			seen[start.Unix()] = true

			end := start.Add(duration)
			slot := entity.Slot{
				DoctorID:  doctorID,
				ServiceID: service.ID,
				Date:      day.Format(dateLayout),
				Start:     start,
				End:       end,
				Available: true,
				// earlier dates are past in full, not only today's elapsed slots
				IsPast: start.Before(now),
			}

			for i := range booked {
				if booked[i].OccupiesSlot() && booked[i].Overlaps(start, end) {
					slot.Available = false
					slot.Reason = entity.SlotReasonBooked
					break
				}
			}
			if slot.Available && slot.IsPast {
				slot.Available = false
				slot.Reason = entity.SlotReasonPast
			}

			slots = append(slots, slot)
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots, nil
}

func (u *slotUsecase) CheckBookable(ctx context.Context, doctorID uuid.UUID, service *entity.ClinicService, start time.Time) error {
	local := start.In(u.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, u.loc)

	slots, err := u.compute(ctx, doctorID, service, day)
	if err != nil {
		return err
	}

	for _, slot := range slots {
		if !slot.Start.Equal(start) {
			continue
		}
		switch slot.Reason {
		case entity.SlotReasonBooked:
			return ErrSlotAlreadyTaken
		case entity.SlotReasonPast:
			return ErrSlotInPast
		}
		return nil
	}
	return ErrSlotNotOffered
}
