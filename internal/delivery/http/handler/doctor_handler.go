package handler

import (
	"net/http"
	"time"

	"clinic-orchestrator/internal/converter"
	"clinic-orchestrator/internal/usecase"
	"clinic-orchestrator/pkg/response"

	"github.com/google/uuid"
)

type DoctorHandler struct {
	doctorUsecase usecase.DoctorUsecase
	slotUsecase   usecase.SlotUsecase
	loc           *time.Location
}

func NewDoctorHandler(doctorUsecase usecase.DoctorUsecase, slotUsecase usecase.SlotUsecase, loc *time.Location) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase: doctorUsecase,
		slotUsecase:   slotUsecase,
		loc:           loc,
	}
}

func (h *DoctorHandler) GetAllDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctorUsecase.GetAllDoctors(r.Context())
	if err != nil {
		response.FromError(w, err, "Failed to get doctors")
		return
	}

	response.Success(w, http.StatusOK, "Doctors retrieved successfully", doctors)
}

func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathUUID(w, r, "id", "doctor ID")
	if !ok {
		return
	}

	doctor, err := h.doctorUsecase.GetDoctor(r.Context(), doctorID)
	if err != nil {
		response.FromError(w, err, "Failed to get doctor")
		return
	}

	response.Success(w, http.StatusOK, "Doctor retrieved successfully", doctor)
}

// GetSlots lists every slot of the doctor for ?service_id= on ?date=, unavailable ones included.
func (h *DoctorHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathUUID(w, r, "id", "doctor ID")
	if !ok {
		return
	}

	query := r.URL.Query()
	serviceID, err := uuid.Parse(query.Get("service_id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid service ID", nil)
		return
	}
	date := query.Get("date")
	if date == "" {
		date = time.Now().In(h.loc).Format("2006-01-02")
	}

	slots, err := h.slotUsecase.ComputeSlots(r.Context(), doctorID, serviceID, date)
	if err != nil {
		response.FromError(w, err, "Failed to get slots")
		return
	}

	response.Success(w, http.StatusOK, "Slots retrieved successfully", converter.SlotsToListResponse(doctorID, serviceID, date, slots, h.loc))
}
