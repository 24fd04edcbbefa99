package service

import (
	"context"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuditService interface {
	LogCreate(ctx context.Context, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error
	LogUpdate(ctx context.Context, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error
	LogDelete(ctx context.Context, userID *uuid.UUID, action string, entityName string, entityID string, oldValue interface{}) error
	RecordEvent(ctx context.Context, event entity.DomainEvent) error
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	return s.logChange(ctx, userID, action, entityName, entityID, nil, newValue)
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	return s.logChange(ctx, userID, action, entityName, entityID, oldValue, newValue)
}

// LogDelete logs a delete action with old value
func (s *auditService) LogDelete(ctx context.Context, userID *uuid.UUID, action string, entityName string, entityID string, oldValue interface{}) error {
	return s.logChange(ctx, userID, action, entityName, entityID, oldValue, nil)
}

// RecordEvent persists a workflow transition to the audit trail.
func (s *auditService) RecordEvent(ctx context.Context, event entity.DomainEvent) error {
	return s.write(ctx, &entity.AuditLog{
		UserID:      event.ActorID,
		Action:      string(event.Type),
		Aggregate:   event.Aggregate,
		AggregateID: event.AggregateID.String(),
		Metadata: entity.JSON{
			"event_id":    event.ID.String(),
			"payload":     event.Payload,
			"occurred_at": event.OccurredAt,
		},
	})
}

func (s *auditService) logChange(ctx context.Context, userID *uuid.UUID, action, entityName, entityID string, oldValue, newValue interface{}) error {
	return s.write(ctx, &entity.AuditLog{
		UserID:      userID,
		Action:      action,
		Aggregate:   entityName,
		AggregateID: entityID,
		Metadata: entity.JSON{
			"old_value": oldValue,
			"new_value": newValue,
		},
	})
}

func (s *auditService) write(ctx context.Context, auditLog *entity.AuditLog) error {
	if err := s.auditRepo.Create(s.db.WithContext(ctx), auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}
	return nil
}
