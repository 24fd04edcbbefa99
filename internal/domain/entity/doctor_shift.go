package entity

import (
	"time"

	"github.com/google/uuid"
)

// DoctorShift is a working period of a doctor on one calendar day.
type DoctorShift struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	ShiftDate time.Time `gorm:"type:date;not null;index" json:"shift_date"`
	StartTime string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string    `gorm:"type:varchar(5);not null" json:"end_time"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor DoctorProfile `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (DoctorShift) TableName() string {
	return "doctor_shifts"
}

// Shift is a resolved working range returned by a schedule provider.
type Shift struct {
	Start time.Time
	End   time.Time
}

// Resolve places the HH:MM bounds of the shift on day in loc.
func (s *DoctorShift) Resolve(day time.Time, loc *time.Location) (Shift, error) {
	start, err := ClockOnDay(day, s.StartTime, loc)
	if err != nil {
		return Shift{}, err
	}
	end, err := ClockOnDay(day, s.EndTime, loc)
	if err != nil {
		return Shift{}, err
	}
	return Shift{Start: start, End: end}, nil
}

// ClockOnDay combines a calendar day with an HH:MM wall-clock time in loc.
func ClockOnDay(day time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
