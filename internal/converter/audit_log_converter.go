package converter

import (
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"
)

// AuditLogToResponse converts a AuditLog entity to AuditLogResponse DTO.
// System entries have no user.
func AuditLogToResponse(log *entity.AuditLog) *dto.AuditLogResponse {
	if log == nil {
		return nil
	}

	return &dto.AuditLogResponse{
		ID:          log.ID,
		User:        UserToResponse(log.User),
		Action:      log.Action,
		Aggregate:   log.Aggregate,
		AggregateID: log.AggregateID,
		Metadata:    log.Metadata,
		CreatedAt:   log.CreatedAt,
	}
}

// AuditLogsToResponses converts a slice of AuditLog entities to slice of AuditLogResponse DTOs
func AuditLogsToResponses(logs []entity.AuditLog) []dto.AuditLogResponse {
	responses := make([]dto.AuditLogResponse, len(logs))
	for i := range logs {
		responses[i] = *AuditLogToResponse(&logs[i])
	}
	return responses
}
