package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateClinicServiceRequest struct {
	Name                string          `json:"name" validate:"required,min=2"`
	Description         string          `json:"description"`
	DurationMinutes     int             `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	Price               decimal.Decimal `json:"price" validate:"required"`
	RequiresLabWork     bool            `json:"requires_lab_work"`
	BloodSampleRequired bool            `json:"blood_sample_required"`
	OnlineAllowed       bool            `json:"online_allowed"`
}

type UpdateClinicServiceRequest struct {
	Name                string          `json:"name" validate:"required,min=2"`
	Description         string          `json:"description"`
	DurationMinutes     int             `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	Price               decimal.Decimal `json:"price" validate:"required"`
	RequiresLabWork     bool            `json:"requires_lab_work"`
	BloodSampleRequired bool            `json:"blood_sample_required"`
	OnlineAllowed       bool            `json:"online_allowed"`
	IsActive            *bool           `json:"is_active,omitempty"`
}

// Response DTOs

type ClinicServiceResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	DurationMinutes     int             `json:"duration_minutes"`
	Price               decimal.Decimal `json:"price"`
	RequiresLabWork     bool            `json:"requires_lab_work"`
	BloodSampleRequired bool            `json:"blood_sample_required"`
	OnlineAllowed       bool            `json:"online_allowed"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type ClinicServiceListResponse struct {
	Services []ClinicServiceResponse `json:"services"`
	Total    int                     `json:"total"`
}
