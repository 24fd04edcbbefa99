package repository

import (
	"context"
	"time"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
)

// LabStatusChange is a compare-and-swap on the lab request status.
// When ExpectedAssignee is set the current assignee must match it as well.
type LabStatusChange struct {
	RequestID        uuid.UUID
	From             entity.LabRequestStatus
	To               entity.LabRequestStatus
	ExpectedAssignee *uuid.UUID
	Fields           map[string]interface{}
}

type LabRequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.LabRequest, error)
	FindByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*entity.LabRequest, error)
	FindPending(ctx context.Context) ([]entity.LabRequest, error)
	FindAll(ctx context.Context, filter entity.LabRequestFilter) ([]entity.LabRequest, error)
	// Claim assigns a PENDING, unassigned request to staffID. Returns ErrStaleState if
	// the request was no longer claimable.
	Claim(ctx context.Context, id, staffID uuid.UUID, at time.Time) error
	ApplyTransition(ctx context.Context, change LabStatusChange) error
}
