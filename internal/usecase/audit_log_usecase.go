package usecase

import (
	"context"

	"clinic-orchestrator/internal/converter"
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/repository"
	"clinic-orchestrator/pkg/apperror"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAuditLogNotFound = apperror.NotFound("audit_log_not_found", "audit log not found")
)

type AuditLogUsecase interface {
	GetAllAuditLogs(ctx context.Context, filter entity.AuditLogFilter) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

func (u *auditLogUsecase) GetAllAuditLogs(ctx context.Context, filter entity.AuditLogFilter) (*dto.AuditLogListResponse, error) {
	logs, total, err := u.auditLogRepo.FindAll(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to find all audit logs: %+v", err)
		return nil, err
	}

	limit, offset := filter.Paging()
	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Page:  offset/limit + 1,
		Limit: limit,
		Total: total,
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	auditLog, err := u.auditLogRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find audit log: %+v", err)
		return nil, err
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	return converter.AuditLogToResponse(auditLog), nil
}
