package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentFilter is a domain-level filter for querying appointments.
// Used by repository layer to avoid coupling with delivery DTOs.
type AppointmentFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    AppointmentStatus
	From      *time.Time
	To        *time.Time
}

// LabRequestFilter narrows lab queue listings.
type LabRequestFilter struct {
	AssignedStaffID *uuid.UUID
	Status          LabRequestStatus
}

// AuditLogFilter narrows audit trail listings.
type AuditLogFilter struct {
	Action      string
	Aggregate   string
	AggregateID string
	Page        int
	Limit       int
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// Paging normalizes Page and Limit into a bounded limit and row offset.
func (f AuditLogFilter) Paging() (limit, offset int) {
	limit = f.Limit
	switch {
	case limit <= 0:
		limit = defaultAuditLimit
	case limit > maxAuditLimit:
		limit = maxAuditLimit
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}
