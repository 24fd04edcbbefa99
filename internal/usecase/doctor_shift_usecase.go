package usecase

import (
	"context"
	"strconv"
	"time"

	"clinic-orchestrator/internal/converter"
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/repository"
	"clinic-orchestrator/internal/service"
	"clinic-orchestrator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const clockLayout = "15:04"

var (
	ErrShiftNotFound     = apperror.NotFound("shift_not_found", "shift not found")
	ErrInvalidShiftDate  = apperror.Validation("invalid_shift_date", "invalid shift date format, use YYYY-MM-DD")
	ErrInvalidTimeFormat = apperror.Validation("invalid_time_format", "invalid time format, use HH:MM")
	ErrShiftEndsBefore   = apperror.Validation("shift_end_before_start", "shift end time must be after its start time")
)

type DoctorShiftUsecase interface {
	CreateShift(ctx context.Context, actor entity.Actor, req *dto.CreateShiftRequest) (*dto.ShiftResponse, error)
	GetShift(ctx context.Context, shiftID int) (*dto.ShiftResponse, error)
	GetShiftsByDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.ShiftListResponse, error)
	GetAllShifts(ctx context.Context) (*dto.ShiftListResponse, error)
	UpdateShift(ctx context.Context, actor entity.Actor, shiftID int, req *dto.UpdateShiftRequest) (*dto.ShiftResponse, error)
	DeleteShift(ctx context.Context, actor entity.Actor, shiftID int) error
}

type doctorShiftUsecase struct {
	log          *logrus.Logger
	shiftRepo    repository.DoctorShiftRepository
	doctorRepo   repository.DoctorProfileRepository
	auditService service.AuditService
}

func NewDoctorShiftUsecase(
	log *logrus.Logger,
	shiftRepo repository.DoctorShiftRepository,
	doctorRepo repository.DoctorProfileRepository,
	auditService service.AuditService,
) DoctorShiftUsecase {
	return &doctorShiftUsecase{
		log:          log,
		shiftRepo:    shiftRepo,
		doctorRepo:   doctorRepo,
		auditService: auditService,
	}
}

func (u *doctorShiftUsecase) CreateShift(ctx context.Context, actor entity.Actor, req *dto.CreateShiftRequest) (*dto.ShiftResponse, error) {
	doctor, err := u.doctorRepo.FindByUserID(ctx, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	shiftDate, err := time.Parse(dateLayout, req.ShiftDate)
	if err != nil {
		return nil, ErrInvalidShiftDate
	}
	if err := validateShiftTimes(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	shift := &entity.DoctorShift{
		DoctorID:  req.DoctorID,
		ShiftDate: shiftDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	if err := u.shiftRepo.Create(ctx, shift); err != nil {
		u.log.Warnf("Failed to create shift: %+v", err)
		return nil, err
	}

	response := converter.ShiftToResponse(shift)
	u.auditService.LogCreate(ctx, actor.Ref(), entity.AuditActionShiftCreate, "doctor_shift", shiftKey(shift.ID), response)

	return response, nil
}

func (u *doctorShiftUsecase) GetShift(ctx context.Context, shiftID int) (*dto.ShiftResponse, error) {
	shift, err := u.find(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return converter.ShiftToResponse(shift), nil
}

func (u *doctorShiftUsecase) GetShiftsByDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.ShiftListResponse, error) {
	shifts, err := u.shiftRepo.FindByDoctorID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find shifts: %+v", err)
		return nil, err
	}

	return &dto.ShiftListResponse{
		Shifts: converter.ShiftsToResponses(shifts),
		Total:  len(shifts),
	}, nil
}

func (u *doctorShiftUsecase) GetAllShifts(ctx context.Context) (*dto.ShiftListResponse, error) {
	shifts, err := u.shiftRepo.FindAll(ctx)
	if err != nil {
		u.log.Warnf("Failed to find all shifts: %+v", err)
		return nil, err
	}

	return &dto.ShiftListResponse{
		Shifts: converter.ShiftsToResponses(shifts),
		Total:  len(shifts),
	}, nil
}

func (u *doctorShiftUsecase) UpdateShift(ctx context.Context, actor entity.Actor, shiftID int, req *dto.UpdateShiftRequest) (*dto.ShiftResponse, error) {
	shift, err := u.find(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	oldValue := converter.ShiftToResponse(shift)

	if req.ShiftDate != "" {
		shiftDate, err := time.Parse(dateLayout, req.ShiftDate)
		if err != nil {
			return nil, ErrInvalidShiftDate
		}
		shift.ShiftDate = shiftDate
	}
	if req.StartTime != "" {
		shift.StartTime = req.StartTime
	}
	if req.EndTime != "" {
		shift.EndTime = req.EndTime
	}
	if err := validateShiftTimes(shift.StartTime, shift.EndTime); err != nil {
		return nil, err
	}

	if err := u.shiftRepo.Update(ctx, shift); err != nil {
		u.log.Warnf("Failed to update shift: %+v", err)
		return nil, err
	}

	response := converter.ShiftToResponse(shift)
	u.auditService.LogUpdate(ctx, actor.Ref(), entity.AuditActionShiftUpdate, "doctor_shift", shiftKey(shift.ID), oldValue, response)

	return response, nil
}

func (u *doctorShiftUsecase) DeleteShift(ctx context.Context, actor entity.Actor, shiftID int) error {
	shift, err := u.find(ctx, shiftID)
	if err != nil {
		return err
	}

	rows, err := u.shiftRepo.Delete(ctx, shiftID)
	if err != nil {
		u.log.Warnf("Failed to delete shift: %+v", err)
		return err
	}
	if rows == 0 {
		return ErrShiftNotFound
	}

	u.auditService.LogDelete(ctx, actor.Ref(), entity.AuditActionShiftDelete, "doctor_shift", shiftKey(shiftID), converter.ShiftToResponse(shift))
	return nil
}

func (u *doctorShiftUsecase) find(ctx context.Context, shiftID int) (*entity.DoctorShift, error) {
	shift, err := u.shiftRepo.FindByID(ctx, shiftID)
	if err != nil {
		u.log.Warnf("Failed to find shift: %+v", err)
		return nil, err
	}
	if shift == nil {
		return nil, ErrShiftNotFound
	}
	return shift, nil
}

func validateShiftTimes(startTime, endTime string) error {
	start, err := time.Parse(clockLayout, startTime)
	if err != nil {
		return ErrInvalidTimeFormat
	}
	end, err := time.Parse(clockLayout, endTime)
	if err != nil {
		return ErrInvalidTimeFormat
	}
	if !end.After(start) {
		return ErrShiftEndsBefore
	}
	return nil
}

func shiftKey(id int) string {
	return strconv.Itoa(id)
}
