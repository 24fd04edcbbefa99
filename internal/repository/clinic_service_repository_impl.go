package repository

import (
	"context"
	"errors"

	"clinic-orchestrator/internal/domain/entity"
	domainRepo "clinic-orchestrator/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type clinicServiceRepository struct {
	db *gorm.DB
}

func NewClinicServiceRepository(db *gorm.DB) domainRepo.ClinicServiceRepository {
	return &clinicServiceRepository{db: db}
}

func (r *clinicServiceRepository) Create(ctx context.Context, service *entity.ClinicService) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *clinicServiceRepository) FindAll(ctx context.Context, activeOnly bool) ([]entity.ClinicService, error) {
	var services []entity.ClinicService
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("name ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *clinicServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ClinicService, error) {
	var service entity.ClinicService
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &service, nil
}

func (r *clinicServiceRepository) Update(ctx context.Context, service *entity.ClinicService) error {
	return r.db.WithContext(ctx).Save(service).Error
}
