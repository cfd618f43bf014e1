package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sailcare/clinic-api/internal/appointment"
	"github.com/sailcare/clinic-api/internal/auth"
	"github.com/sailcare/clinic-api/internal/healthrecord"
	"github.com/sailcare/clinic-api/internal/patient"
)

func newestFirst(r *http.Request) bool {
	return appointment.ParseSortOrder(r.URL.Query().Get("sort")) == appointment.Newest
}

func myProfileHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByUID(r.Context(), auth.UIDFromContext(r.Context()))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updateMyProfileHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req patient.Patch
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.UpdateByUID(r.Context(), auth.UIDFromContext(r.Context()), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func searchPatientsHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.Search(r.Context(), patient.SearchQuery{
			ID:        q.Get("id"),
			FirstName: q.Get("first_name"),
			LastName:  q.Get("last_name"),
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func getPatientHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updatePatientHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req patient.Patch
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func myRecordsHandler(svc RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListForPatient(r.Context(), auth.UIDFromContext(r.Context()), r.URL.Query().Get("type"), newestFirst(r))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func myRecordSummaryHandler(svc RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summary(r.Context(), auth.UIDFromContext(r.Context()))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

// patientRecordsHandler resolves the patient id to the account uid the records are filed under.
func patientRecordsHandler(patients PatientService, records RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := patients.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, r, err)
			return
		}

		list, err := records.ListForPatient(r.Context(), p.UID, r.URL.Query().Get("type"), newestFirst(r))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func addRecordHandler(svc RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req healthrecord.Input
		if !decodeJSON(w, r, &req) {
			return
		}

		rec, err := svc.Add(r.Context(), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func updateRecordHandler(svc RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req healthrecord.Patch
		if !decodeJSON(w, r, &req) {
			return
		}

		rec, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func deleteRecordHandler(svc RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
