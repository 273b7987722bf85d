package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/rental-pricing/internal/pricing"
	"github.com/mmeshcher/rental-pricing/internal/quotes"
	"github.com/mmeshcher/rental-pricing/internal/repository"
	"github.com/mmeshcher/rental-pricing/internal/service"
	"github.com/mmeshcher/rental-pricing/internal/validation"
)

// Коды ошибок API.
const (
	codeInvalidRequest   = "invalid_request"
	codeInvalidArgument  = "invalid_argument"
	codeUnknownPolicy    = "unknown_policy"
	codeUnauthorized     = "unauthorized"
	codeForbidden        = "forbidden"
	codeNotFound         = "not_found"
	codeDatesUnavailable = "dates_unavailable"
	codeNotActive        = "booking_not_active"
	codeStayStarted      = "stay_started"
	codeQuoteExpired     = "quote_expired"
	codeInternal         = "internal_error"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &errorBody{Code: code, Message: message}})
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
}

func writeMalformedBody(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusBadRequest, codeInvalidRequest, "malformed request body")
}

// writeServiceError переводит доменные ошибки в HTTP-статусы. Неизвестные ошибки логируются и скрываются от клиента.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	switch {
	case errors.Is(err, pricing.ErrUnknownPolicy):
		writeError(w, http.StatusBadRequest, codeUnknownPolicy, err.Error())
	case errors.Is(err, pricing.ErrInvalidArgument),
		errors.Is(err, validation.ErrInvalidDate),
		errors.Is(err, validation.ErrInvalidStay):
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, "access denied")
	case errors.Is(err, repository.ErrListingNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "listing not found")
	case errors.Is(err, repository.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "booking not found")
	case errors.Is(err, repository.ErrDatesUnavailable):
		writeError(w, http.StatusConflict, codeDatesUnavailable, "dates are not available")
	case errors.Is(err, repository.ErrBookingNotActive):
		writeError(w, http.StatusConflict, codeNotActive, "booking is already cancelled")
	case errors.Is(err, service.ErrStayStarted):
		writeError(w, http.StatusConflict, codeStayStarted, "check-in has already passed")
	case errors.Is(err, quotes.ErrQuoteNotFound):
		writeError(w, http.StatusGone, codeQuoteExpired, "quote not found or expired")
	default:
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}
