package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sailcare/clinic-api/internal/appointment"
	"github.com/sailcare/clinic-api/internal/auth"
	"github.com/sailcare/clinic-api/internal/clinictime"
	"github.com/sailcare/clinic-api/internal/validation"
)

func actorFrom(r *http.Request, asStaff bool) appointment.Actor {
	return appointment.Actor{
		UID:   auth.UIDFromContext(r.Context()),
		Staff: asStaff && auth.IsStaff(auth.RoleFromContext(r.Context())),
	}
}

// queryDay reads a lenient date parameter, defaulting to today.
func queryDay(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Now().In(clinictime.Zone), nil
	}
	day, err := clinictime.ParseQueryDate(raw)
	if err != nil {
		return time.Time{}, validation.FieldErrors{key: "must be a valid date"}
	}
	return day, nil
}

func catalogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, appointment.DefaultCatalog())
	}
}

func slotsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := queryDay(r, "date")
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Slots(day))
	}
}

// bookAppointmentHandler serves both the patient booking form and the staff
// walk-in form; only the latter may book for another uid.
func bookAppointmentHandler(svc AppointmentService, staffRoute bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointment.BookingInput
		if !decodeJSON(w, r, &req) {
			return
		}

		appt, err := svc.Book(r.Context(), actorFrom(r, staffRoute), req)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, appt)
	}
}

func myAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order := appointment.ParseSortOrder(r.URL.Query().Get("sort"))
		list, err := svc.ListForUser(r.Context(), auth.UIDFromContext(r.Context()), order)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func myAppointmentSummaryHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summary(r.Context(), auth.UIDFromContext(r.Context()))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.List(r.Context(), appointment.Query{
			Date:      strings.TrimSpace(q.Get("date")),
			Status:    strings.TrimSpace(q.Get("status")),
			VisitType: strings.TrimSpace(q.Get("visit_type")),
			UID:       strings.TrimSpace(q.Get("uid")),
			Name:      strings.TrimSpace(q.Get("name")),
			Sort:      appointment.ParseSortOrder(q.Get("sort")),
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := svc.Get(r.Context(), actorFrom(r, true), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func updateStatusHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func rescheduleHandler(svc AppointmentService, staffRoute bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		appt, err := svc.Reschedule(r.Context(), actorFrom(r, staffRoute), chi.URLParam(r, "id"), req.ScheduledAt, req.Date, req.Time)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func dayStatsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := queryDay(r, "date")
		if err != nil {
			handleError(w, r, err)
			return
		}

		st, err := svc.DayStats(r.Context(), day)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func weekStatsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().In(clinictime.Zone)
		q := r.URL.Query()
		fe := validation.FieldErrors{}

		intParam := func(key string, def int) int {
			raw := strings.TrimSpace(q.Get(key))
			if raw == "" {
				return def
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				fe.Add(key, "must be a number")
			}
			return n
		}

		defWeek := (now.Day()-1)/7 + 1
		if defWeek > 4 {
			defWeek = 4
		}

		year := intParam("year", now.Year())
		month := intParam("month", int(now.Month()))
		week := intParam("week", defWeek)
		if month < 1 || month > 12 {
			fe.Add("month", "must be between 1 and 12")
		}
		if err := fe.Err(); err != nil {
			handleError(w, r, err)
			return
		}

		st, err := svc.WeekStats(r.Context(), year, time.Month(month), week)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
