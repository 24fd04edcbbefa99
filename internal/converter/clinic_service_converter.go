package converter

import (
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"
)

func ClinicServiceToResponse(service *entity.ClinicService) *dto.ClinicServiceResponse {
	return &dto.ClinicServiceResponse{
		ID:                  service.ID,
		Name:                service.Name,
		Description:         service.Description,
		DurationMinutes:     service.DurationMinutes,
		Price:               service.Price,
		RequiresLabWork:     service.RequiresLabWork,
		BloodSampleRequired: service.BloodSampleRequired,
		OnlineAllowed:       service.OnlineAllowed,
		IsActive:            service.IsActive,
		CreatedAt:           service.CreatedAt,
		UpdatedAt:           service.UpdatedAt,
	}
}

func ClinicServicesToResponses(services []entity.ClinicService) []dto.ClinicServiceResponse {
	responses := make([]dto.ClinicServiceResponse, len(services))
	for i := range services {
		responses[i] = *ClinicServiceToResponse(&services[i])
	}
	return responses
}
