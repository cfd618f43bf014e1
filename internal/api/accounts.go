package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sailcare/clinic-api/internal/auth"
	"github.com/sailcare/clinic-api/internal/logger"
	"github.com/sailcare/clinic-api/internal/risk"
	"github.com/sailcare/clinic-api/internal/user"
)

func questionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, risk.Questions())
	}
}

// scoreHandler scores answers without storing them; used before an account exists.
func scoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var answers risk.Answers
		if !decodeJSON(w, r, &answers) {
			return
		}
		if err := risk.Validate(answers); err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, risk.Score(answers))
	}
}

func registerHandler(svc UserService, tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req user.RegisterInput
		if !decodeJSON(w, r, &req) {
			return
		}

		reg, err := svc.Register(r.Context(), req)
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := RegisterResponse{Registration: reg}
		token, expires, err := tokens.Issue(reg.User.UID, reg.User.Role)
		if err != nil {
			logger.L().Errorw("failed to issue token after registration", "uid", reg.User.UID, "error", err)
		} else {
			resp.Token, resp.ExpiresAt = token, expires
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

func loginHandler(svc UserService, tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		u, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			handleError(w, r, err)
			return
		}

		token, expires, err := tokens.Issue(u.UID, u.Role)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expires, User: u})
	}
}

func meHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Get(r.Context(), auth.UIDFromContext(r.Context()))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func changePasswordHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChangePasswordRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := svc.ChangePassword(r.Context(), auth.UIDFromContext(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
			handleError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getAssessmentHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Assessment(r.Context(), auth.UIDFromContext(r.Context()))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func saveAssessmentHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var answers risk.Answers
		if !decodeJSON(w, r, &answers) {
			return
		}

		res, err := svc.SaveAssessment(r.Context(), auth.UIDFromContext(r.Context()), answers)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func listUsersHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.List(r.Context(), user.ListFilter{
			UID:       strings.TrimSpace(q.Get("uid")),
			FirstName: strings.TrimSpace(q.Get("first_name")),
			Role:      strings.TrimSpace(q.Get("role")),
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createUserHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req user.AccountInput
		if !decodeJSON(w, r, &req) {
			return
		}

		reg, err := svc.CreateAccount(r.Context(), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, reg)
	}
}

func getUserHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Get(r.Context(), chi.URLParam(r, "uid"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func updateUserHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req user.Patch
		if !decodeJSON(w, r, &req) {
			return
		}

		u, err := svc.Update(r.Context(), chi.URLParam(r, "uid"), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func deleteUserHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteAccount(r.Context(), chi.URLParam(r, "uid")); err != nil {
			handleError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
