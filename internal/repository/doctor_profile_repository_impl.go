package repository

import (
	"context"
	"errors"

	"clinic-orchestrator/internal/domain/entity"
	domainRepo "clinic-orchestrator/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorProfileRepository struct {
	db *gorm.DB
}

func NewDoctorProfileRepository(db *gorm.DB) domainRepo.DoctorProfileRepository {
	return &doctorProfileRepository{db: db}
}

func (r *doctorProfileRepository) Create(ctx context.Context, profile *entity.DoctorProfile) error {
	return r.db.WithContext(ctx).Omit("User", "Shifts").Create(profile).Error
}

func (r *doctorProfileRepository) FindByUserID(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", doctorID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *doctorProfileRepository) FindAll(ctx context.Context) ([]entity.DoctorProfile, error) {
	var profiles []entity.DoctorProfile
	err := r.db.WithContext(ctx).Preload("User").Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
