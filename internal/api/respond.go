package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sailcare/clinic-api/internal/appointment"
	"github.com/sailcare/clinic-api/internal/clinictime"
	"github.com/sailcare/clinic-api/internal/healthrecord"
	"github.com/sailcare/clinic-api/internal/inventory"
	"github.com/sailcare/clinic-api/internal/logger"
	"github.com/sailcare/clinic-api/internal/patient"
	redisclient "github.com/sailcare/clinic-api/internal/redis"
	"github.com/sailcare/clinic-api/internal/risk"
	"github.com/sailcare/clinic-api/internal/user"
	"github.com/sailcare/clinic-api/internal/validation"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warnw("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

// handleError maps domain errors onto HTTP statuses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_input",
			Details: "one or more fields are invalid",
			Fields:  fe,
		})
		return
	}

	switch {
	case errors.Is(err, clinictime.ErrUnparseable),
		errors.Is(err, clinictime.ErrEmpty):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, risk.ErrUnknownQuestion),
		errors.Is(err, risk.ErrUnknownOption):
		writeError(w, http.StatusBadRequest, "invalid_answers", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, appointment.ErrInvalidWeek):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, appointment.ErrBookingTooSoon):
		writeError(w, http.StatusBadRequest, "booking_too_soon", err.Error())

	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")

	case errors.Is(err, appointment.ErrNotOwner):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, patient.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, healthrecord.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "health_record_not_found", err.Error())
	case errors.Is(err, inventory.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, user.ErrNoAssessment):
		writeError(w, http.StatusNotFound, "assessment_not_found", err.Error())

	case errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, appointment.ErrDuplicateBooking):
		writeError(w, http.StatusConflict, "duplicate_booking", err.Error())
	case errors.Is(err, appointment.ErrBookingInProgress),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "booking_in_progress", "a booking is already being processed, please retry shortly")
	case errors.Is(err, appointment.ErrDuplicateID),
		errors.Is(err, patient.ErrDuplicateID):
		writeError(w, http.StatusConflict, "duplicate_id", "id already taken, please retry")

	default:
		logger.L().Errorw("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
