package dto

import (
	"time"

	"github.com/google/uuid"
)

type SlotResponse struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	StartTime string    `json:"start_time"` // HH:MM in clinic time
	Available bool      `json:"available"`
	IsPast    bool      `json:"is_past"`
	Reason    string    `json:"reason,omitempty"`
}

type SlotListResponse struct {
	DoctorID  uuid.UUID      `json:"doctor_id"`
	ServiceID uuid.UUID      `json:"service_id"`
	Date      string         `json:"date"`
	Slots     []SlotResponse `json:"slots"`
	Total     int            `json:"total"`
	Available int            `json:"available"`
}
