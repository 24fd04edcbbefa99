package handler

import (
	"net/http"
	"time"

	"clinic-orchestrator/internal/converter"
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/usecase"
	"clinic-orchestrator/pkg/response"
	"clinic-orchestrator/pkg/validator"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
	loc                *time.Location
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator, loc *time.Location) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
		loc:                loc,
	}
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req dto.BookAppointmentRequest
	if !decodeAndValidate(w, r, h.validator, &req, false) {
		return
	}

	builder := usecase.NewBookingBuilder(h.loc).
		Slot(req.DoctorID, req.ServiceID, req.Date, req.StartTime).
		Patient(actor.UserID, req.Symptoms, req.MedicalHistory, req.Notes).
		Consultation(req.IsOnline, req.IsAnonymous).
		Payment(entity.PaymentMethod(req.PaymentMethod))
	if req.AutoConfirm != nil {
		builder.AutoConfirm(*req.AutoConfirm)
	}

	cmd, err := builder.Build()
	if err != nil {
		response.FromError(w, err, "Failed to book appointment")
		return
	}

	appointment, err := h.appointmentUsecase.Book(r.Context(), cmd)
	if err != nil {
		response.FromError(w, err, "Failed to book appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", converter.AppointmentToResponse(appointment))
}

func (h *AppointmentHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	appointments, err := h.appointmentUsecase.ListForPatient(r.Context(), actor.UserID)
	if err != nil {
		response.FromError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	})
}

func (h *AppointmentHandler) GetDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := dto.AppointmentFilterRequest{
		Status: query.Get("status"),
		From:   query.Get("from"),
		To:     query.Get("to"),
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	filter := entity.AppointmentFilter{Status: entity.AppointmentStatus(req.Status)}
	if req.From != "" {
		from, err := time.ParseInLocation("2006-01-02", req.From, h.loc)
		if err != nil {
			response.FromError(w, usecase.ErrInvalidDate, "Invalid from date")
			return
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.ParseInLocation("2006-01-02", req.To, h.loc)
		if err != nil {
			response.FromError(w, usecase.ErrInvalidDate, "Invalid to date")
			return
		}
		// inclusive of the whole day
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}

	appointments, err := h.appointmentUsecase.ListForDoctor(r.Context(), actor.UserID, filter)
	if err != nil {
		response.FromError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	})
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.Get(r.Context(), actor, appointmentID)
	if err != nil {
		response.FromError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", converter.AppointmentToResponse(appointment))
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	var req dto.CancelAppointmentRequest
	if !decodeAndValidate(w, r, h.validator, &req, true) {
		return
	}

	appointment, err := h.appointmentUsecase.Cancel(r.Context(), actor, appointmentID, req.Reason)
	if err != nil {
		response.FromError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled successfully", converter.AppointmentToResponse(appointment))
}

func (h *AppointmentHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.CheckIn(r.Context(), actor, appointmentID)
	if err != nil {
		response.FromError(w, err, "Failed to check in")
		return
	}

	response.Success(w, http.StatusOK, "Checked in successfully", converter.AppointmentToResponse(appointment))
}

func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.Confirm(r.Context(), actor, appointmentID)
	if err != nil {
		response.FromError(w, err, "Failed to confirm appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment confirmed successfully", converter.AppointmentToResponse(appointment))
}

func (h *AppointmentHandler) Review(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	var req dto.ReviewAppointmentRequest
	if !decodeAndValidate(w, r, h.validator, &req, true) {
		return
	}

	appointment, err := h.appointmentUsecase.PutUnderReview(r.Context(), actor, appointmentID, req.Vitals, req.Notes)
	if err != nil {
		response.FromError(w, err, "Failed to start review")
		return
	}

	response.Success(w, http.StatusOK, "Appointment under review", converter.AppointmentToResponse(appointment))
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	var req dto.CompleteAppointmentRequest
	if !decodeAndValidate(w, r, h.validator, &req, true) {
		return
	}

	appointment, err := h.appointmentUsecase.Complete(r.Context(), actor, appointmentID, req.DoctorNotes)
	if err != nil {
		response.FromError(w, err, "Failed to complete appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment completed successfully", converter.AppointmentToResponse(appointment))
}

func (h *AppointmentHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.MarkNoShow(r.Context(), actor, appointmentID)
	if err != nil {
		response.FromError(w, err, "Failed to mark no-show")
		return
	}

	response.Success(w, http.StatusOK, "Appointment marked as no-show", converter.AppointmentToResponse(appointment))
}

func (h *AppointmentHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.MarkPaid(r.Context(), actor, appointmentID)
	if err != nil {
		response.FromError(w, err, "Failed to mark appointment as paid")
		return
	}

	response.Success(w, http.StatusOK, "Payment recorded successfully", converter.AppointmentToResponse(appointment))
}
