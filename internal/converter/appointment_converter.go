package converter

import (
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
)

const anonymousPatientName = "Anonymous"

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO.
// The patient name is hidden on anonymous consultations.
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:              appointment.ID,
		DoctorID:        appointment.DoctorID,
		PatientID:       appointment.PatientID,
		ServiceID:       appointment.ServiceID,
		ServiceName:     appointment.Service.Name,
		ScheduledAt:     appointment.ScheduledAt,
		EndsAt:          appointment.EndsAt,
		DurationMinutes: appointment.DurationMinutes,
		IsOnline:        appointment.IsOnline,
		IsAnonymous:     appointment.IsAnonymous,
		PaymentMethod:   string(appointment.PaymentMethod),
		IsPaid:          appointment.IsPaid,
		PaidAt:          appointment.PaidAt,
		CheckedIn:       appointment.CheckedIn,
		CheckedInAt:     appointment.CheckedInAt,
		Symptoms:        appointment.Symptoms,
		MedicalHistory:  appointment.MedicalHistory,
		Notes:           appointment.Notes,
		Vitals:          appointment.Vitals,
		DoctorNotes:     appointment.DoctorNotes,
		Status:          string(appointment.Status),
		CancelReason:    appointment.CancelReason,
		CancelledAt:     appointment.CancelledAt,
		CompletedAt:     appointment.CompletedAt,
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}

	if appointment.LabStatus != nil {
		response.LabStatus = string(*appointment.LabStatus)
	}

	if appointment.IsAnonymous {
		response.PatientName = anonymousPatientName
	} else {
		response.PatientName = appointment.Patient.FullName
	}

	// Include doctor info if available
	if appointment.Doctor.UserID != uuid.Nil {
		response.Doctor = DoctorProfileToResponse(&appointment.Doctor)
	}

	return response
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
