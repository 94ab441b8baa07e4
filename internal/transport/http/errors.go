package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidSlotID      = "invalid_slot_id"
	codeInvalidStatus      = "invalid_status"
	codeInvalidUntil       = "invalid_until"
	codeActorRequired      = "actor_required"
	codeSellerIDRequired   = "seller_id_required"
	codeSlotNotFound       = "slot_not_found"
	codeConflict           = "conflict"
	codeMaintenanceLocked  = "maintenance_locked"
	codeDeadlinePast       = "deadline_past"
	codeDraftInvalid       = "draft_invalid"
	codeUndoExpired        = "undo_expired"
	codeNothingToUndo      = "nothing_to_undo"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps domain sentinels to HTTP statuses and codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		payload, merr := json.Marshal(errorResponse{
			Error:  validation.Error(),
			Code:   codeDraftInvalid,
			Fields: validation.Fields,
		})
		if merr != nil {
			_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
			return
		}
		_, _ = w.Write(payload)
		return
	}

	switch err {
	case domain.ErrSlotNotFound:
		writeError(w, http.StatusNotFound, codeSlotNotFound, err.Error())
	case domain.ErrConflict:
		writeError(w, http.StatusConflict, codeConflict, err.Error())
	case domain.ErrMaintenanceLocked:
		writeError(w, http.StatusConflict, codeMaintenanceLocked, err.Error())
	case domain.ErrDeadlinePast:
		writeError(w, http.StatusBadRequest, codeDeadlinePast, err.Error())
	case domain.ErrUndoExpired:
		writeError(w, http.StatusGone, codeUndoExpired, err.Error())
	case domain.ErrNothingToUndo:
		writeError(w, http.StatusNotFound, codeNothingToUndo, err.Error())
	case domain.ErrActorRequired:
		writeError(w, http.StatusBadRequest, codeActorRequired, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
