package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"clinic-orchestrator/internal/delivery/http/middleware"
	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/pkg/response"
	"clinic-orchestrator/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// currentActor writes 401 and returns false when the request carries no authenticated caller.
func currentActor(w http.ResponseWriter, r *http.Request) (entity.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return entity.Actor{}, false
	}
	return actor, true
}

// pathUUID parses the mux variable name, writing 400 with label on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+label, nil)
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate decodes the JSON body into req and validates it.
// An empty body is accepted when allowEmpty is set.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, req interface{}, allowEmpty bool) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		if !allowEmpty || !errors.Is(err, io.EOF) {
			response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
			return false
		}
	}

	if err := v.Validate(req); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}
