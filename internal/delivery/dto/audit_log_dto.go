package dto

import (
	"time"

	"clinic-orchestrator/internal/domain/entity"
)

// Response DTOs

type AuditLogResponse struct {
	ID          int64         `json:"id"`
	User        *UserResponse `json:"user,omitempty"`
	Action      string        `json:"action"`
	Aggregate   string        `json:"aggregate,omitempty"`
	AggregateID string        `json:"aggregate_id,omitempty"`
	Metadata    entity.JSON   `json:"metadata"`
	CreatedAt   time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Page  int                `json:"-"`
	Limit int                `json:"-"`
	Total int64              `json:"-"`
}
