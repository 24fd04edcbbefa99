package converter

import (
	"time"

	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
)

// SlotsToListResponse renders slots in loc, keeping unavailable ones so they can be shown disabled.
func SlotsToListResponse(doctorID, serviceID uuid.UUID, date string, slots []entity.Slot, loc *time.Location) *dto.SlotListResponse {
	response := &dto.SlotListResponse{
		DoctorID:  doctorID,
		ServiceID: serviceID,
		Date:      date,
		Slots:     make([]dto.SlotResponse, len(slots)),
		Total:     len(slots),
	}
	for i, slot := range slots {
		response.Slots[i] = dto.SlotResponse{
			Start:     slot.Start,
			End:       slot.End,
			StartTime: slot.Start.In(loc).Format("15:04"),
			Available: slot.Available,
			IsPast:    slot.IsPast,
			Reason:    string(slot.Reason),
		}
		if slot.Available {
			response.Available++
		}
	}
	return response
}
