package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type LabResultItem struct {
	Name           string `json:"name" validate:"required"`
	Value          string `json:"value" validate:"required"`
	Unit           string `json:"unit" validate:"omitempty,max=50"`
	ReferenceRange string `json:"reference_range" validate:"omitempty,max=100"`
	Notes          string `json:"notes" validate:"omitempty,max=1000"`
}

type SubmitLabResultsRequest struct {
	Results []LabResultItem `json:"results" validate:"required,min=1,dive"`
}

type RejectLabRequestRequest struct {
	Notes string `json:"notes" validate:"required,min=3"`
}

type ReactivateLabRequestRequest struct {
	AssignTo *uuid.UUID `json:"assign_to,omitempty"`
}

// Response DTOs

type LabRequestResponse struct {
	ID                  uuid.UUID       `json:"id"`
	AppointmentID       uuid.UUID       `json:"appointment_id"`
	PatientName         string          `json:"patient_name"`
	ServiceName         string          `json:"service_name"`
	BloodSampleRequired bool            `json:"blood_sample_required"`
	Status              string          `json:"status"`
	AssignedStaffID     *uuid.UUID      `json:"assigned_staff_id,omitempty"`
	Results             []LabResultItem `json:"results"`
	PreviousResults     []LabResultItem `json:"previous_results,omitempty"`
	RejectionNotes      string          `json:"rejection_notes,omitempty"`
	RejectedBy          *uuid.UUID      `json:"rejected_by,omitempty"`
	Attempt             int             `json:"attempt"`
	ClaimedAt           *time.Time      `json:"claimed_at,omitempty"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	RejectedAt          *time.Time      `json:"rejected_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type LabRequestListResponse struct {
	Requests []LabRequestResponse `json:"requests"`
	Total    int                  `json:"total"`
}

type LabPreviousResultsResponse struct {
	RequestID uuid.UUID       `json:"request_id"`
	Results   []LabResultItem `json:"results"`
}
