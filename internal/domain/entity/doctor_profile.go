package entity

import "github.com/google/uuid"

// DoctorProfile represents doctor-specific profile data
type DoctorProfile struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	LicenseNumber  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"license_number"`
	Specialization string    `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Biography      string    `gorm:"type:text" json:"biography,omitempty"`

	// Relationships
	User   User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Shifts []DoctorShift `gorm:"foreignKey:DoctorID" json:"shifts,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// IsBookable reports whether patients may book with this doctor.
func (d *DoctorProfile) IsBookable() bool {
	return d.User.IsActive
}
