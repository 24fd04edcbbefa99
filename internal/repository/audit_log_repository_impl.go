package repository

import (
	"context"
	"errors"

	"clinic-orchestrator/internal/domain/entity"
	domainRepo "clinic-orchestrator/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(db *gorm.DB, log *entity.AuditLog) error {
	return db.Omit("User").Create(log).Error
}

func (r *auditLogRepository) FindAll(ctx context.Context, db *gorm.DB, filter entity.AuditLogFilter) ([]entity.AuditLog, int64, error) {
	var (
		logs  []entity.AuditLog
		total int64
	)
	query := db.WithContext(ctx).Model(&entity.AuditLog{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Aggregate != "" {
		query = query.Where("aggregate = ?", filter.Aggregate)
	}
	if filter.AggregateID != "" {
		query = query.Where("aggregate_id = ?", filter.AggregateID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := filter.Paging()
	err := query.Preload("User.Role").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *auditLogRepository) FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error) {
	var log entity.AuditLog
	err := db.WithContext(ctx).Preload("User.Role").Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}
