package response

import (
	"encoding/json"
	"net/http"

	"clinic-orchestrator/pkg/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SuccessWithMeta(w http.ResponseWriter, statusCode int, message string, data interface{}, meta *Meta) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

func Error(w http.ResponseWriter, statusCode int, message string, err interface{}) {
	JSON(w, statusCode, Response{
		Success: false,
		Message: message,
		Error:   err,
	})
}

func ValidationError(w http.ResponseWriter, errors interface{}) {
	JSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: "Validation failed",
		Error:   errors,
	})
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	Error(w, http.StatusUnauthorized, message, nil)
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Error(w, http.StatusNotFound, message, nil)
}

func InternalServerError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal server error"
	}
	Error(w, http.StatusInternalServerError, message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Forbidden"
	}
	Error(w, http.StatusForbidden, message, nil)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message, nil)
}

// ErrorDetail is the machine-readable part of a typed error response.
type ErrorDetail struct {
	Code             string `json:"code"`
	Kind             string `json:"kind"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
	ElapsedSeconds   int64  `json:"elapsed_seconds,omitempty"`
}

var statusByKind = map[apperror.Kind]int{
	apperror.KindValidation:   http.StatusBadRequest,
	apperror.KindConflict:     http.StatusConflict,
	apperror.KindPrecondition: http.StatusUnprocessableEntity,
	apperror.KindNotFound:     http.StatusNotFound,
	apperror.KindUpstream:     http.StatusBadGateway,
	apperror.KindForbidden:    http.StatusForbidden,
}

// FromError renders a usecase error. Untyped errors become a generic 500 with fallback.
func FromError(w http.ResponseWriter, err error, fallback string) {
	appErr, ok := apperror.As(err)
	if !ok {
		InternalServerError(w, fallback)
		return
	}

	status, known := statusByKind[appErr.Kind]
	if !known {
		status = http.StatusInternalServerError
	}

	message := appErr.Message
	if appErr.Kind == apperror.KindUpstream {
		message = appErr.Error()
	}

	Error(w, status, message, ErrorDetail{
		Code:             appErr.Code,
		Kind:             string(appErr.Kind),
		RemainingSeconds: int64(appErr.Remaining.Seconds()),
		ElapsedSeconds:   int64(appErr.Elapsed.Seconds()),
	})
}
