package http

import (
	"encoding/json"
	"net/http"

	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
	"github.com/Samuel871933/buylav2-sub001/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, contracts.SuccessResponse{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, contracts.ErrorResponse{Status: "error", Code: code, Message: message})
}

func mapDomainError(err error) (int, string) {
	switch err {
	case nil:
		return http.StatusOK, ""
	case domain.ErrUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case domain.ErrForbidden:
		return http.StatusForbidden, "forbidden"
	case domain.ErrNotFound:
		return http.StatusNotFound, "not_found"
	case domain.ErrInvalidInput:
		return http.StatusBadRequest, "invalid_input"
	case domain.ErrConflict:
		return http.StatusConflict, "conflict"
	case domain.ErrTransitionNotAllowed:
		return http.StatusConflict, "transition_not_allowed"
	case domain.ErrUnsupportedEventType:
		return http.StatusBadRequest, "unsupported_event_type"
	case domain.ErrStorageUnavailable:
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
