package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sailcare/clinic-api/internal/appointment"
	"github.com/sailcare/clinic-api/internal/auth"
	"github.com/sailcare/clinic-api/internal/logger"
	"github.com/sailcare/clinic-api/internal/risk"
	"github.com/sailcare/clinic-api/internal/user"
	"github.com/sailcare/clinic-api/internal/validation"
)

func init() {
	logger.SetLogger(zap.NewNop())
}

type fakeUsers struct {
	UserService
	byEmail map[string]user.User
}

func (f *fakeUsers) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, ok := f.byEmail[email]
	if !ok || password != "secret1" {
		return nil, user.ErrInvalidCredentials
	}
	return &u, nil
}

func (f *fakeUsers) Get(ctx context.Context, uid string) (*user.User, error) {
	for _, u := range f.byEmail {
		if u.UID == uid {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

type fakeAppointments struct {
	AppointmentService
	mu    sync.Mutex
	items []appointment.Appointment
}

func (f *fakeAppointments) Book(ctx context.Context, actor appointment.Actor, in appointment.BookingInput) (*appointment.Appointment, error) {
	if in.FirstName == "" {
		return nil, validation.FieldErrors{"first_name": "is required"}
	}
	if in.FirstName == "panic" {
		panic("boom")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	a := appointment.Appointment{
		ID:          strconv.Itoa(len(f.items) + 1),
		UID:         actor.UID,
		FullName:    in.FirstName + " " + in.LastName,
		VisitType:   in.VisitType,
		ServiceType: in.ServiceType,
		Status:      appointment.StatusUpcoming,
	}
	f.items = append(f.items, a)
	return &a, nil
}

func (f *fakeAppointments) ListForUser(ctx context.Context, uid string, order appointment.SortOrder) ([]appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []appointment.Appointment{}
	for _, a := range f.items {
		if a.UID == uid {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointments) List(ctx context.Context, q appointment.Query) ([]appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]appointment.Appointment{}, f.items...), nil
}

func (f *fakeAppointments) UpdateStatus(ctx context.Context, id, status string) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Status = status
			a := f.items[i]
			return &a, nil
		}
	}
	return nil, appointment.ErrAppointmentNotFound
}

type testServer struct {
	handler      http.Handler
	users        *fakeUsers
	appointments *fakeAppointments
}

func newTestServer(pgErr, redisErr error) *testServer {
	users := &fakeUsers{byEmail: map[string]user.User{
		"ana@example.com":   {UID: "uid-ana", FirstName: "Ana", Role: user.RolePatient, Status: user.StatusActive},
		"nurse@example.com": {UID: "uid-nurse", FirstName: "Nina", Role: user.RoleAssistant, Status: user.StatusActive},
	}}
	appts := &fakeAppointments{}

	h := NewRouter(RouterConfig{
		Users:        users,
		Appointments: appts,
		Tokens:       auth.NewTokens("router-test-secret", time.Hour),
		Postgres:     PingFunc(func(context.Context) error { return pgErr }),
		Redis:        PingFunc(func(context.Context) error { return redisErr }),
		Env:          "test",
		Version:      "dev",
	})
	return &testServer{handler: h, users: users, appointments: appts}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: email, Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := srv.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	tests := []struct {
		name     string
		pgErr    error
		redisErr error
		code     int
		status   string
	}{
		{"all up", nil, nil, http.StatusOK, "ok"},
		{"redis down", nil, errors.New("refused"), http.StatusOK, "degraded"},
		{"postgres down", errors.New("refused"), nil, http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestServer(tt.pgErr, tt.redisErr).do(t, http.MethodGet, "/health/ready", "", nil)
			assert.Equal(t, tt.code, rec.Code)

			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
		})
	}
}

func TestLoginBookAndList(t *testing.T) {
	srv := newTestServer(nil, nil)
	token := srv.login(t, "ana@example.com")

	rec := srv.do(t, http.MethodPost, "/me/appointments", token, appointment.BookingInput{
		FirstName:   "Ana",
		LastName:    "Cruz",
		VisitType:   appointment.VisitFirst,
		ServiceType: "Rapid HIV Test",
		Date:        "2030-01-15",
		Time:        "2:00 PM",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var booked appointment.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booked))
	assert.Equal(t, "1", booked.ID)
	assert.Equal(t, "uid-ana", booked.UID)
	assert.Equal(t, appointment.StatusUpcoming, booked.Status)

	rec = srv.do(t, http.MethodGet, "/me/appointments?sort=Oldest", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []appointment.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Ana Cruz", list[0].FullName)

	rec = srv.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"uid":"uid-ana"`)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := srv.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "ana@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeError(t, rec).Error)
}

func TestStaffRoutesAreGated(t *testing.T) {
	srv := newTestServer(nil, nil)

	rec := srv.do(t, http.MethodGet, "/appointments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/appointments", srv.login(t, "ana@example.com"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	staff := srv.login(t, "nurse@example.com")
	rec = srv.do(t, http.MethodGet, "/appointments?date=06-02-25&sort=Newest", staff, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/users", staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStoredAccountOverridesToken(t *testing.T) {
	t.Run("deleted account", func(t *testing.T) {
		srv := newTestServer(nil, nil)
		staff := srv.login(t, "nurse@example.com")
		delete(srv.users.byEmail, "nurse@example.com")

		rec := srv.do(t, http.MethodGet, "/appointments", staff, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthenticated", decodeError(t, rec).Error)

		rec = srv.do(t, http.MethodGet, "/me", staff, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("inactive account", func(t *testing.T) {
		srv := newTestServer(nil, nil)
		staff := srv.login(t, "nurse@example.com")
		u := srv.users.byEmail["nurse@example.com"]
		u.Status = user.StatusInactive
		srv.users.byEmail["nurse@example.com"] = u

		rec := srv.do(t, http.MethodGet, "/appointments", staff, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("demoted account", func(t *testing.T) {
		srv := newTestServer(nil, nil)
		staff := srv.login(t, "nurse@example.com")
		u := srv.users.byEmail["nurse@example.com"]
		u.Role = user.RolePatient
		srv.users.byEmail["nurse@example.com"] = u

		rec := srv.do(t, http.MethodGet, "/appointments", staff, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(nil, nil)
	staff := srv.login(t, "nurse@example.com")

	rec := srv.do(t, http.MethodPost, "/appointments", staff, appointment.BookingInput{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "invalid_input", resp.Error)
	assert.Equal(t, "is required", resp.Fields["first_name"])

	rec = srv.do(t, http.MethodPut, "/appointments/404/status", staff, StatusRequest{Status: "Completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "appointment_not_found", decodeError(t, rec).Error)

	rec = srv.do(t, http.MethodPost, "/appointments", staff, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request_body", decodeError(t, rec).Error)

	rec = srv.do(t, http.MethodPost, "/appointments", staff, appointment.BookingInput{FirstName: "panic"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Error)
}

func TestWeekStatsRejectsBadParams(t *testing.T) {
	srv := newTestServer(nil, nil)
	staff := srv.login(t, "nurse@example.com")

	rec := srv.do(t, http.MethodGet, "/appointments/stats/week?year=2025&month=13&week=x", staff, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeError(t, rec).Fields
	assert.Contains(t, fields, "month")
	assert.Contains(t, fields, "week")
}

func TestRiskScoreIsPublic(t *testing.T) {
	srv := newTestServer(nil, nil)

	rec := srv.do(t, http.MethodPost, "/risk-assessment/score", "", risk.Answers{
		"encounter": "POST", "sexType": "Anal (Receptive)", "condomUse": "No",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var res risk.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 8.0, res.Total)
	assert.Equal(t, risk.LevelHigh, res.Level)

	rec = srv.do(t, http.MethodPost, "/risk-assessment/score", "", risk.Answers{"shoeSize": "9"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_answers", decodeError(t, rec).Error)

	rec = srv.do(t, http.MethodGet, "/catalog", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rapid HIV Test")
}
