package converter

import (
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
)

// ShiftToResponse converts a DoctorShift entity to ShiftResponse DTO
func ShiftToResponse(shift *entity.DoctorShift) *dto.ShiftResponse {
	if shift == nil {
		return nil
	}

	response := &dto.ShiftResponse{
		ID:        shift.ID,
		DoctorID:  shift.DoctorID,
		ShiftDate: shift.ShiftDate.Format("2006-01-02"),
		StartTime: shift.StartTime,
		EndTime:   shift.EndTime,
		CreatedAt: shift.CreatedAt,
		UpdatedAt: shift.UpdatedAt,
	}

	// Include doctor info if available
	if shift.Doctor.UserID != uuid.Nil {
		response.Doctor = DoctorProfileToResponse(&shift.Doctor)
	}

	return response
}

func ShiftsToResponses(shifts []entity.DoctorShift) []dto.ShiftResponse {
	responses := make([]dto.ShiftResponse, len(shifts))
	for i := range shifts {
		responses[i] = *ShiftToResponse(&shifts[i])
	}
	return responses
}
