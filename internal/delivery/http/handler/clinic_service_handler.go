package handler

import (
	"net/http"

	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/usecase"
	"clinic-orchestrator/pkg/response"
	"clinic-orchestrator/pkg/validator"
)

type ClinicServiceHandler struct {
	serviceUsecase usecase.ClinicServiceUsecase
	validator      *validator.CustomValidator
}

func NewClinicServiceHandler(serviceUsecase usecase.ClinicServiceUsecase, validator *validator.CustomValidator) *ClinicServiceHandler {
	return &ClinicServiceHandler{
		serviceUsecase: serviceUsecase,
		validator:      validator,
	}
}

func (h *ClinicServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateClinicServiceRequest
	if !decodeAndValidate(w, r, h.validator, &req, false) {
		return
	}

	service, err := h.serviceUsecase.Create(r.Context(), actor, &req)
	if err != nil {
		response.FromError(w, err, "Failed to create service")
		return
	}

	response.Success(w, http.StatusCreated, "Service created successfully", service)
}

// GetActiveServices is the public catalogue.
func (h *ClinicServiceHandler) GetActiveServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.serviceUsecase.GetAll(r.Context(), false)
	if err != nil {
		response.FromError(w, err, "Failed to get services")
		return
	}

	response.Success(w, http.StatusOK, "Services retrieved successfully", services)
}

func (h *ClinicServiceHandler) GetAllServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.serviceUsecase.GetAll(r.Context(), true)
	if err != nil {
		response.FromError(w, err, "Failed to get services")
		return
	}

	response.Success(w, http.StatusOK, "Services retrieved successfully", services)
}

func (h *ClinicServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := pathUUID(w, r, "id", "service ID")
	if !ok {
		return
	}

	service, err := h.serviceUsecase.GetByID(r.Context(), serviceID)
	if err != nil {
		response.FromError(w, err, "Failed to get service")
		return
	}

	response.Success(w, http.StatusOK, "Service retrieved successfully", service)
}

func (h *ClinicServiceHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	serviceID, ok := pathUUID(w, r, "id", "service ID")
	if !ok {
		return
	}

	var req dto.UpdateClinicServiceRequest
	if !decodeAndValidate(w, r, h.validator, &req, false) {
		return
	}

	service, err := h.serviceUsecase.Update(r.Context(), actor, serviceID, &req)
	if err != nil {
		response.FromError(w, err, "Failed to update service")
		return
	}

	response.Success(w, http.StatusOK, "Service updated successfully", service)
}

func (h *ClinicServiceHandler) DeactivateService(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	serviceID, ok := pathUUID(w, r, "id", "service ID")
	if !ok {
		return
	}

	if err := h.serviceUsecase.Deactivate(r.Context(), actor, serviceID); err != nil {
		response.FromError(w, err, "Failed to deactivate service")
		return
	}

	response.Success(w, http.StatusOK, "Service deactivated successfully", nil)
}
