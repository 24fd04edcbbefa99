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

type VideoHandler struct {
	videoUsecase usecase.VideoSessionUsecase
	validator    *validator.CustomValidator
}

func NewVideoHandler(videoUsecase usecase.VideoSessionUsecase, validator *validator.CustomValidator) *VideoHandler {
	return &VideoHandler{
		videoUsecase: videoUsecase,
		validator:    validator,
	}
}

func (h *VideoHandler) IssueCredential(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	var req dto.VideoCredentialRequest
	if !decodeAndValidate(w, r, h.validator, &req, false) {
		return
	}

	credential, err := h.videoUsecase.IssueCredential(r.Context(), actor, appointmentID, entity.ParticipantRole(req.Role))
	if err != nil {
		response.FromError(w, err, "Failed to issue video credential")
		return
	}

	response.Success(w, http.StatusOK, "Video credential issued successfully", converter.VideoCredentialToResponse(credential))
}

func (h *VideoHandler) Renew(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	var req dto.VideoCredentialRequest
	if !decodeAndValidate(w, r, h.validator, &req, false) {
		return
	}

	credential, err := h.videoUsecase.Renew(r.Context(), actor, appointmentID, entity.ParticipantRole(req.Role))
	if err != nil {
		response.FromError(w, err, "Failed to renew video credential")
		return
	}

	response.Success(w, http.StatusOK, "Video credential renewed successfully", converter.VideoCredentialToResponse(credential))
}

func (h *VideoHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	var req dto.EndVideoSessionRequest
	if !decodeAndValidate(w, r, h.validator, &req, false) {
		return
	}

	appointment, err := h.videoUsecase.EndSession(r.Context(), actor, appointmentID, req.Successful)
	if err != nil {
		response.FromError(w, err, "Failed to end video session")
		return
	}

	response.Success(w, http.StatusOK, "Video session ended", converter.AppointmentToResponse(appointment))
}
