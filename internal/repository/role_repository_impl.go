package repository

import (
	"context"
	"errors"

	"clinic-orchestrator/internal/domain/entity"
	domainRepo "clinic-orchestrator/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) domainRepo.RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	var role entity.Role
	err := r.db.WithContext(ctx).Where("role_name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) EnsureDefaults(ctx context.Context) error {
	roles := []entity.Role{
		{ID: entity.RoleIDAdmin, RoleName: entity.RoleAdmin, Description: "Clinic administrator"},
		{ID: entity.RoleIDDoctor, RoleName: entity.RoleDoctor, Description: "Attending doctor"},
		{ID: entity.RoleIDPatient, RoleName: entity.RolePatient, Description: "Patient"},
		{ID: entity.RoleIDStaff, RoleName: entity.RoleStaff, Description: "Laboratory and front desk staff"},
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error
}
