package repository

import (
	"context"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
)

type ClinicServiceRepository interface {
	Create(ctx context.Context, service *entity.ClinicService) error
	FindAll(ctx context.Context, activeOnly bool) ([]entity.ClinicService, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ClinicService, error)
	Update(ctx context.Context, service *entity.ClinicService) error
}
