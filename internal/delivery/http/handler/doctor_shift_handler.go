package handler

import (
	"net/http"
	"strconv"

	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/usecase"
	"clinic-orchestrator/pkg/response"
	"clinic-orchestrator/pkg/validator"

	"github.com/gorilla/mux"
)

type DoctorShiftHandler struct {
	shiftUsecase usecase.DoctorShiftUsecase
	validator    *validator.CustomValidator
}

func NewDoctorShiftHandler(shiftUsecase usecase.DoctorShiftUsecase, validator *validator.CustomValidator) *DoctorShiftHandler {
	return &DoctorShiftHandler{
		shiftUsecase: shiftUsecase,
		validator:    validator,
	}
}

func (h *DoctorShiftHandler) CreateShift(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateShiftRequest
	if !decodeAndValidate(w, r, h.validator, &req, false) {
		return
	}

	shift, err := h.shiftUsecase.CreateShift(r.Context(), actor, &req)
	if err != nil {
		response.FromError(w, err, "Failed to create shift")
		return
	}

	response.Success(w, http.StatusCreated, "Shift created successfully", shift)
}

func (h *DoctorShiftHandler) GetShift(w http.ResponseWriter, r *http.Request) {
	shiftID, ok := shiftIDFromPath(w, r)
	if !ok {
		return
	}

	shift, err := h.shiftUsecase.GetShift(r.Context(), shiftID)
	if err != nil {
		response.FromError(w, err, "Failed to get shift")
		return
	}

	response.Success(w, http.StatusOK, "Shift retrieved successfully", shift)
}

func (h *DoctorShiftHandler) GetAllShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.shiftUsecase.GetAllShifts(r.Context())
	if err != nil {
		response.FromError(w, err, "Failed to get shifts")
		return
	}

	response.Success(w, http.StatusOK, "Shifts retrieved successfully", shifts)
}

func (h *DoctorShiftHandler) GetShiftsByDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathUUID(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}

	shifts, err := h.shiftUsecase.GetShiftsByDoctor(r.Context(), doctorID)
	if err != nil {
		response.FromError(w, err, "Failed to get shifts")
		return
	}

	response.Success(w, http.StatusOK, "Shifts retrieved successfully", shifts)
}

func (h *DoctorShiftHandler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	shiftID, ok := shiftIDFromPath(w, r)
	if !ok {
		return
	}

	var req dto.UpdateShiftRequest
	if !decodeAndValidate(w, r, h.validator, &req, false) {
		return
	}

	shift, err := h.shiftUsecase.UpdateShift(r.Context(), actor, shiftID, &req)
	if err != nil {
		response.FromError(w, err, "Failed to update shift")
		return
	}

	response.Success(w, http.StatusOK, "Shift updated successfully", shift)
}

func (h *DoctorShiftHandler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	shiftID, ok := shiftIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.shiftUsecase.DeleteShift(r.Context(), actor, shiftID); err != nil {
		response.FromError(w, err, "Failed to delete shift")
		return
	}

	response.Success(w, http.StatusOK, "Shift deleted successfully", nil)
}

func shiftIDFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	shiftID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid shift ID", nil)
		return 0, false
	}
	return shiftID, true
}
