package entity

import (
	"time"

	"github.com/google/uuid"
)

// SlotUnavailableReason explains why a slot cannot be booked
type SlotUnavailableReason string

const (
	SlotReasonBooked SlotUnavailableReason = "BOOKED"
	SlotReasonPast   SlotUnavailableReason = "PAST"
)

// Slot is computed per query from shifts and active appointments; it is never persisted.
type Slot struct {
	DoctorID  uuid.UUID
	ServiceID uuid.UUID
	Date      string
	Start     time.Time
	End       time.Time
	Available bool
	IsPast    bool
	Reason    SlotUnavailableReason
}
