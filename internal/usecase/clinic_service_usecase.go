package usecase

import (
	"context"

	"clinic-orchestrator/internal/converter"
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/repository"
	"clinic-orchestrator/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ClinicServiceUsecase interface {
	Create(ctx context.Context, actor entity.Actor, req *dto.CreateClinicServiceRequest) (*dto.ClinicServiceResponse, error)
	GetAll(ctx context.Context, includeInactive bool) (*dto.ClinicServiceListResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ClinicServiceResponse, error)
	Update(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.UpdateClinicServiceRequest) (*dto.ClinicServiceResponse, error)
	// Deactivate hides the service from booking. Services are never deleted because appointments reference them.
	Deactivate(ctx context.Context, actor entity.Actor, id uuid.UUID) error
}

type clinicServiceUsecase struct {
	log          *logrus.Logger
	serviceRepo  repository.ClinicServiceRepository
	auditService service.AuditService
}

func NewClinicServiceUsecase(
	log *logrus.Logger,
	serviceRepo repository.ClinicServiceRepository,
	auditService service.AuditService,
) ClinicServiceUsecase {
	return &clinicServiceUsecase{
		log:          log,
		serviceRepo:  serviceRepo,
		auditService: auditService,
	}
}

func (u *clinicServiceUsecase) Create(ctx context.Context, actor entity.Actor, req *dto.CreateClinicServiceRequest) (*dto.ClinicServiceResponse, error) {
	clinicService := &entity.ClinicService{
		ID:                  uuid.New(),
		Name:                req.Name,
		Description:         req.Description,
		DurationMinutes:     req.DurationMinutes,
		Price:               req.Price,
		RequiresLabWork:     req.RequiresLabWork,
		BloodSampleRequired: req.BloodSampleRequired,
		OnlineAllowed:       req.OnlineAllowed,
		IsActive:            true,
	}

	if err := u.serviceRepo.Create(ctx, clinicService); err != nil {
		u.log.Warnf("Failed to create clinic service: %+v", err)
		return nil, err
	}

	response := converter.ClinicServiceToResponse(clinicService)
	u.auditService.LogCreate(ctx, actor.Ref(), entity.AuditActionServiceCreate, "clinic_service", clinicService.ID.String(), response)

	return response, nil
}

func (u *clinicServiceUsecase) GetAll(ctx context.Context, includeInactive bool) (*dto.ClinicServiceListResponse, error) {
	services, err := u.serviceRepo.FindAll(ctx, !includeInactive)
	if err != nil {
		u.log.Warnf("Failed to find clinic services: %+v", err)
		return nil, err
	}

	return &dto.ClinicServiceListResponse{
		Services: converter.ClinicServicesToResponses(services),
		Total:    len(services),
	}, nil
}

func (u *clinicServiceUsecase) GetByID(ctx context.Context, id uuid.UUID) (*dto.ClinicServiceResponse, error) {
	clinicService, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return converter.ClinicServiceToResponse(clinicService), nil
}

func (u *clinicServiceUsecase) Update(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.UpdateClinicServiceRequest) (*dto.ClinicServiceResponse, error) {
	clinicService, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}

	oldValue := converter.ClinicServiceToResponse(clinicService)

	clinicService.Name = req.Name
	clinicService.Description = req.Description
	clinicService.DurationMinutes = req.DurationMinutes
	clinicService.Price = req.Price
	clinicService.RequiresLabWork = req.RequiresLabWork
	clinicService.BloodSampleRequired = req.BloodSampleRequired
	clinicService.OnlineAllowed = req.OnlineAllowed
	if req.IsActive != nil {
		clinicService.IsActive = *req.IsActive
	}

	if err := u.serviceRepo.Update(ctx, clinicService); err != nil {
		u.log.Warnf("Failed to update clinic service %s: %+v", id, err)
		return nil, err
	}

	response := converter.ClinicServiceToResponse(clinicService)
	u.auditService.LogUpdate(ctx, actor.Ref(), entity.AuditActionServiceUpdate, "clinic_service", id.String(), oldValue, response)

	return response, nil
}

func (u *clinicServiceUsecase) Deactivate(ctx context.Context, actor entity.Actor, id uuid.UUID) error {
	clinicService, err := u.find(ctx, id)
	if err != nil {
		return err
	}
	if !clinicService.IsActive {
		return nil
	}

	oldValue := converter.ClinicServiceToResponse(clinicService)
	clinicService.IsActive = false

	if err := u.serviceRepo.Update(ctx, clinicService); err != nil {
		u.log.Warnf("Failed to deactivate clinic service %s: %+v", id, err)
		return err
	}

	u.auditService.LogDelete(ctx, actor.Ref(), entity.AuditActionServiceDelete, "clinic_service", id.String(), oldValue)
	return nil
}

func (u *clinicServiceUsecase) find(ctx context.Context, id uuid.UUID) (*entity.ClinicService, error) {
	clinicService, err := u.serviceRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find clinic service %s: %+v", id, err)
		return nil, err
	}
	if clinicService == nil {
		return nil, ErrServiceNotFound
	}
	return clinicService, nil
}
