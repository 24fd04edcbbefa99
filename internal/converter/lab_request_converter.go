package converter

import (
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"
)

func LabRequestToResponse(request *entity.LabRequest) *dto.LabRequestResponse {
	if request == nil {
		return nil
	}

	response := &dto.LabRequestResponse{
		ID:                  request.ID,
		AppointmentID:       request.AppointmentID,
		PatientName:         request.PatientName,
		ServiceName:         request.ServiceName,
		BloodSampleRequired: request.BloodSampleRequired,
		Status:              string(request.Status),
		AssignedStaffID:     request.AssignedStaffID,
		Results:             LabResultsToItems(request.Results),
		PreviousResults:     LabResultsToItems(request.PreviousResults),
		RejectedBy:          request.RejectedBy,
		Attempt:             request.Attempt,
		ClaimedAt:           request.ClaimedAt,
		CompletedAt:         request.CompletedAt,
		RejectedAt:          request.RejectedAt,
		CreatedAt:           request.CreatedAt,
		UpdatedAt:           request.UpdatedAt,
	}
	if request.RejectionNotes != nil {
		response.RejectionNotes = *request.RejectionNotes
	}
	return response
}

func LabRequestsToResponses(requests []entity.LabRequest) []dto.LabRequestResponse {
	responses := make([]dto.LabRequestResponse, len(requests))
	for i := range requests {
		responses[i] = *LabRequestToResponse(&requests[i])
	}
	return responses
}

// LabResultsToItems always returns a non-nil slice so the queue UI can pre-populate forms.
func LabResultsToItems(results entity.LabResults) []dto.LabResultItem {
	items := make([]dto.LabResultItem, len(results))
	for i, r := range results {
		items[i] = dto.LabResultItem{
			Name:           r.Name,
			Value:          r.Value,
			Unit:           r.Unit,
			ReferenceRange: r.ReferenceRange,
			Notes:          r.Notes,
		}
	}
	return items
}

func LabItemsToResults(items []dto.LabResultItem) []entity.LabTestResult {
	results := make([]entity.LabTestResult, len(items))
	for i, item := range items {
		results[i] = entity.LabTestResult{
			Name:           item.Name,
			Value:          item.Value,
			Unit:           item.Unit,
			ReferenceRange: item.ReferenceRange,
			Notes:          item.Notes,
		}
	}
	return results
}
