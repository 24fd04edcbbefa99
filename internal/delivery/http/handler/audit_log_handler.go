package handler

import (
	"net/http"
	"strconv"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/usecase"
	"clinic-orchestrator/pkg/response"

	"github.com/gorilla/mux"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
	}
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auditLogID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid audit log ID", nil)
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), auditLogID)
	if err != nil {
		response.FromError(w, err, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

// GetAllAuditLogs accepts ?action=, ?aggregate=, ?aggregate_id=, ?page= and ?limit=.
func (h *AuditLogHandler) GetAllAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := entity.AuditLogFilter{
		Action:      query.Get("action"),
		Aggregate:   query.Get("aggregate"),
		AggregateID: query.Get("aggregate_id"),
	}
	for param, target := range map[string]*int{"page": &filter.Page, "limit": &filter.Limit} {
		raw := query.Get(param)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(w, http.StatusBadRequest, "Invalid "+param, nil)
			return
		}
		*target = n
	}

	auditLogs, err := h.auditLogUsecase.GetAllAuditLogs(r.Context(), filter)
	if err != nil {
		response.FromError(w, err, "Failed to get audit logs")
		return
	}

	totalPages := int((auditLogs.Total + int64(auditLogs.Limit) - 1) / int64(auditLogs.Limit))
	response.SuccessWithMeta(w, http.StatusOK, "Audit logs retrieved successfully", auditLogs.Logs, &response.Meta{
		Page:       auditLogs.Page,
		Limit:      auditLogs.Limit,
		Total:      auditLogs.Total,
		TotalPages: totalPages,
	})
}
