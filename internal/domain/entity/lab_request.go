package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clinic-orchestrator/pkg/apperror"

	"github.com/google/uuid"
)

// LabRequestStatus represents the status of a lab request in the work queue
type LabRequestStatus string

const (
	LabRequestStatusPending   LabRequestStatus = "pending"
	LabRequestStatusAssigned  LabRequestStatus = "assigned"
	LabRequestStatusCompleted LabRequestStatus = "completed"
	LabRequestStatusRejected  LabRequestStatus = "rejected"
)

// LabAction is an input of the lab request state machine.
type LabAction string

const (
	LabActionClaim      LabAction = "claim"
	LabActionSubmit     LabAction = "submit"
	LabActionReject     LabAction = "reject"
	LabActionReactivate LabAction = "reactivate"
)

var ErrInvalidLabTransition = apperror.Precondition("invalid_lab_transition", "lab request status does not allow this action")

var labTransitions = map[LabAction]struct {
	from LabRequestStatus
	to   LabRequestStatus
}{
	LabActionClaim:      {from: LabRequestStatusPending, to: LabRequestStatusAssigned},
	LabActionSubmit:     {from: LabRequestStatusAssigned, to: LabRequestStatusCompleted},
	LabActionReject:     {from: LabRequestStatusCompleted, to: LabRequestStatusRejected},
	LabActionReactivate: {from: LabRequestStatusRejected, to: LabRequestStatusAssigned},
}

// NextLabStatus returns the status action leads to from current.
// It also returns the required source status so repositories can use it in a conditional update.
func NextLabStatus(current LabRequestStatus, action LabAction) (from, to LabRequestStatus, err error) {
	rule, ok := labTransitions[action]
	if !ok || rule.from != current {
		return current, current, ErrInvalidLabTransition
	}
	return rule.from, rule.to, nil
}

// LabTestResult is one named measurement.
type LabTestResult struct {
	Name           string `json:"name" validate:"required"`
	Value          string `json:"value" validate:"required"`
	Unit           string `json:"unit,omitempty"`
	ReferenceRange string `json:"reference_range,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// LabResults is stored as JSONB
type LabResults []LabTestResult

// Value returns json value, implement driver.Valuer interface
func (r LabResults) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan scan value into LabResults, implements sql.Scanner interface
func (r *LabResults) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	var result []LabTestResult
	err := json.Unmarshal(bytes, &result)
	*r = LabResults(result)
	return err
}

// LabRequest is a diagnostic task in the staff work queue, spawned by a confirmed appointment.
type LabRequest struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AppointmentID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	PatientName         string           `gorm:"type:varchar(255)" json:"patient_name"`
	ServiceName         string           `gorm:"type:varchar(255)" json:"service_name"`
	BloodSampleRequired bool             `gorm:"not null;default:false" json:"blood_sample_required"`
	Status              LabRequestStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	AssignedStaffID     *uuid.UUID       `gorm:"type:uuid;index" json:"assigned_staff_id,omitempty"`
	Results             LabResults       `gorm:"type:jsonb" json:"results,omitempty"`
	PreviousResults     LabResults       `gorm:"type:jsonb" json:"previous_results,omitempty"`
	RejectionNotes      *string          `gorm:"type:text" json:"rejection_notes,omitempty"`
	RejectedBy          *uuid.UUID       `gorm:"type:uuid" json:"rejected_by,omitempty"`
	Attempt             int              `gorm:"not null;default:1" json:"attempt"`
	ClaimedAt           *time.Time       `json:"claimed_at,omitempty"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty"`
	RejectedAt          *time.Time       `json:"rejected_at,omitempty"`
	CreatedAt           time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LabRequest) TableName() string {
	return "lab_requests"
}

// IsAssignedTo reports whether staffID currently owns the request.
func (l *LabRequest) IsAssignedTo(staffID uuid.UUID) bool {
	return l.AssignedStaffID != nil && *l.AssignedStaffID == staffID
}

// NewLabRequest builds the queue entry for a confirmed appointment.
func NewLabRequest(appointment *Appointment, patientName string, service *ClinicService) *LabRequest {
	return &LabRequest{
		ID:                  uuid.New(),
		AppointmentID:       appointment.ID,
		PatientName:         patientName,
		ServiceName:         service.Name,
		BloodSampleRequired: service.BloodSampleRequired,
		Status:              LabRequestStatusPending,
		Attempt:             1,
	}
}
