package repository

import (
	"context"

	"clinic-orchestrator/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	// FindAll returns one page of matching logs and the total number of matches.
	FindAll(ctx context.Context, db *gorm.DB, filter entity.AuditLogFilter) ([]entity.AuditLog, int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error)
}
