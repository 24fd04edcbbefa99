package repository

import (
	"context"
	"errors"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	domainRepo "clinic-orchestrator/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type labRequestRepository struct {
	db *gorm.DB
}

func NewLabRequestRepository(db *gorm.DB) domainRepo.LabRequestRepository {
	return &labRequestRepository{db: db}
}

func (r *labRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.LabRequest, error) {
	var request entity.LabRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *labRequestRepository) FindByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*entity.LabRequest, error) {
	var request entity.LabRequest
	err := r.db.WithContext(ctx).Where("appointment_id = ?", appointmentID).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// FindPending lists the queue oldest first.
func (r *labRequestRepository) FindPending(ctx context.Context) ([]entity.LabRequest, error) {
	var requests []entity.LabRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.LabRequestStatusPending).
		Order("created_at ASC, id ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *labRequestRepository) FindAll(ctx context.Context, filter entity.LabRequestFilter) ([]entity.LabRequest, error) {
	var requests []entity.LabRequest
	query := r.db.WithContext(ctx)
	if filter.AssignedStaffID != nil {
		query = query.Where("assigned_staff_id = ?", *filter.AssignedStaffID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if err := query.Order("updated_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Claim flips PENDING to ASSIGNED in one statement so the request leaves the pending
// view atomically with gaining its owner.
func (r *labRequestRepository) Claim(ctx context.Context, id, staffID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.LabRequest{}).
		Where("id = ? AND status = ? AND assigned_staff_id IS NULL", id, entity.LabRequestStatusPending).
		Updates(map[string]interface{}{
			"status":            entity.LabRequestStatusAssigned,
			"assigned_staff_id": staffID,
			"claimed_at":        at,
			"updated_at":        at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrStaleState
	}
	return nil
}

func (r *labRequestRepository) ApplyTransition(ctx context.Context, change domainRepo.LabStatusChange) error {
	updates := map[string]interface{}{
		"status":     change.To,
		"updated_at": time.Now(),
	}
	for k, v := range change.Fields {
		updates[k] = v
	}

	query := r.db.WithContext(ctx).Model(&entity.LabRequest{}).
		Where("id = ? AND status = ?", change.RequestID, change.From)
	if change.ExpectedAssignee != nil {
		query = query.Where("assigned_staff_id = ?", *change.ExpectedAssignee)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrStaleState
	}
	return nil
}
