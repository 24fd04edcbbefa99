package handler

import (
	"net/http"

	"clinic-orchestrator/internal/converter"
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/usecase"
	"clinic-orchestrator/pkg/response"
	"clinic-orchestrator/pkg/validator"
)

type LabRequestHandler struct {
	labUsecase usecase.LabRequestUsecase
	validator  *validator.CustomValidator
}

func NewLabRequestHandler(labUsecase usecase.LabRequestUsecase, validator *validator.CustomValidator) *LabRequestHandler {
	return &LabRequestHandler{
		labUsecase: labUsecase,
		validator:  validator,
	}
}

// GetPending lists the queue oldest first.
func (h *LabRequestHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.labUsecase.ListPending(r.Context())
	if err != nil {
		response.FromError(w, err, "Failed to get lab queue")
		return
	}

	response.Success(w, http.StatusOK, "Lab queue retrieved successfully", &dto.LabRequestListResponse{
		Requests: converter.LabRequestsToResponses(requests),
		Total:    len(requests),
	})
}

func (h *LabRequestHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	status := entity.LabRequestStatus(r.URL.Query().Get("status"))
	requests, err := h.labUsecase.ListByStaff(r.Context(), actor.UserID, status)
	if err != nil {
		response.FromError(w, err, "Failed to get lab requests")
		return
	}

	response.Success(w, http.StatusOK, "Lab requests retrieved successfully", &dto.LabRequestListResponse{
		Requests: converter.LabRequestsToResponses(requests),
		Total:    len(requests),
	})
}

func (h *LabRequestHandler) GetLabRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathUUID(w, r, "id", "lab request ID")
	if !ok {
		return
	}

	request, err := h.labUsecase.Get(r.Context(), requestID)
	if err != nil {
		response.FromError(w, err, "Failed to get lab request")
		return
	}

	response.Success(w, http.StatusOK, "Lab request retrieved successfully", converter.LabRequestToResponse(request))
}

// GetForAppointment looks the request up by the appointment that spawned it.
func (h *LabRequestHandler) GetForAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	request, err := h.labUsecase.GetForAppointment(r.Context(), actor, appointmentID)
	if err != nil {
		response.FromError(w, err, "Failed to get lab request")
		return
	}

	response.Success(w, http.StatusOK, "Lab request retrieved successfully", converter.LabRequestToResponse(request))
}

func (h *LabRequestHandler) Claim(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "id", "lab request ID")
	if !ok {
		return
	}

	request, err := h.labUsecase.Claim(r.Context(), actor, requestID)
	if err != nil {
		response.FromError(w, err, "Failed to claim lab request")
		return
	}

	response.Success(w, http.StatusOK, "Lab request claimed successfully", converter.LabRequestToResponse(request))
}

func (h *LabRequestHandler) SubmitResults(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "id", "lab request ID")
	if !ok {
		return
	}

	var req dto.SubmitLabResultsRequest
	if !decodeAndValidate(w, r, h.validator, &req, false) {
		return
	}

	request, err := h.labUsecase.SubmitResults(r.Context(), actor, requestID, converter.LabItemsToResults(req.Results))
	if err != nil {
		response.FromError(w, err, "Failed to submit lab results")
		return
	}

	response.Success(w, http.StatusOK, "Lab results submitted successfully", converter.LabRequestToResponse(request))
}

func (h *LabRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "id", "lab request ID")
	if !ok {
		return
	}

	var req dto.RejectLabRequestRequest
	if !decodeAndValidate(w, r, h.validator, &req, false) {
		return
	}

	request, err := h.labUsecase.Reject(r.Context(), actor, requestID, req.Notes)
	if err != nil {
		response.FromError(w, err, "Failed to reject lab results")
		return
	}

	response.Success(w, http.StatusOK, "Lab results rejected", converter.LabRequestToResponse(request))
}

func (h *LabRequestHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "id", "lab request ID")
	if !ok {
		return
	}

	var req dto.ReactivateLabRequestRequest
	if !decodeAndValidate(w, r, h.validator, &req, true) {
		return
	}

	request, err := h.labUsecase.Reactivate(r.Context(), actor, requestID, req.AssignTo)
	if err != nil {
		response.FromError(w, err, "Failed to reactivate lab request")
		return
	}

	response.Success(w, http.StatusOK, "Lab request reactivated successfully", converter.LabRequestToResponse(request))
}

func (h *LabRequestHandler) GetPreviousResults(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathUUID(w, r, "id", "lab request ID")
	if !ok {
		return
	}

	results, err := h.labUsecase.PreviousResults(r.Context(), requestID)
	if err != nil {
		response.FromError(w, err, "Failed to get previous results")
		return
	}

	response.Success(w, http.StatusOK, "Previous results retrieved successfully", &dto.LabPreviousResultsResponse{
		RequestID: requestID,
		Results:   converter.LabResultsToItems(results),
	})
}
