package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClinicService is a bookable consultation or examination type.
type ClinicService struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name                string          `gorm:"type:varchar(255);not null" json:"name"`
	Description         string          `gorm:"type:text" json:"description,omitempty"`
	DurationMinutes     int             `gorm:"not null" json:"duration_minutes"`
	Price               decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	RequiresLabWork     bool            `gorm:"not null;default:false" json:"requires_lab_work"`
	BloodSampleRequired bool            `gorm:"not null;default:false" json:"blood_sample_required"`
	OnlineAllowed       bool            `gorm:"not null;default:false" json:"online_allowed"`
	IsActive            bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ClinicService) TableName() string {
	return "clinic_services"
}

func (s *ClinicService) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
