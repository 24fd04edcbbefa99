package usecase

import (
	"context"

	"clinic-orchestrator/internal/converter"
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DoctorUsecase is the read-only doctor directory. Profiles are maintained by the
// external account service.
type DoctorUsecase interface {
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
}

type doctorUsecase struct {
	log        *logrus.Logger
	doctorRepo repository.DoctorProfileRepository
}

func NewDoctorUsecase(log *logrus.Logger, doctorRepo repository.DoctorProfileRepository) DoctorUsecase {
	return &doctorUsecase{log: log, doctorRepo: doctorRepo}
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorRepo.FindByUserID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	return converter.DoctorProfileToResponse(doctor), nil
}

func (u *doctorUsecase) GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorRepo.FindAll(ctx)
	if err != nil {
		u.log.Warnf("Failed to find all doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorProfilesToResponses(doctors),
		Total:   len(doctors),
	}, nil
}
