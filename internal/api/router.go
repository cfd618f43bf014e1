package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sailcare/clinic-api/internal/appointment"
	"github.com/sailcare/clinic-api/internal/auth"
	"github.com/sailcare/clinic-api/internal/healthrecord"
	"github.com/sailcare/clinic-api/internal/inventory"
	"github.com/sailcare/clinic-api/internal/patient"
	"github.com/sailcare/clinic-api/internal/risk"
	"github.com/sailcare/clinic-api/internal/user"
)

type UserService interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.Registration, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	CreateAccount(ctx context.Context, in user.AccountInput) (*user.Registration, error)
	DeleteAccount(ctx context.Context, uid string) error
	Get(ctx context.Context, uid string) (*user.User, error)
	List(ctx context.Context, f user.ListFilter) ([]user.User, error)
	Update(ctx context.Context, uid string, patch user.Patch) (*user.User, error)
	ChangePassword(ctx context.Context, uid, current, next string) error
	SaveAssessment(ctx context.Context, uid string, answers risk.Answers) (*risk.Result, error)
	Assessment(ctx context.Context, uid string) (*risk.Result, error)
}

type PatientService interface {
	Get(ctx context.Context, id string) (*patient.Patient, error)
	GetByUID(ctx context.Context, uid string) (*patient.Patient, error)
	Search(ctx context.Context, q patient.SearchQuery) ([]patient.Patient, error)
	Update(ctx context.Context, id string, patch patient.Patch) (*patient.Patient, error)
	UpdateByUID(ctx context.Context, uid string, patch patient.Patch) (*patient.Patient, error)
}

type AppointmentService interface {
	Book(ctx context.Context, actor appointment.Actor, in appointment.BookingInput) (*appointment.Appointment, error)
	Get(ctx context.Context, actor appointment.Actor, id string) (*appointment.Appointment, error)
	List(ctx context.Context, q appointment.Query) ([]appointment.Appointment, error)
	ListForUser(ctx context.Context, uid string, order appointment.SortOrder) ([]appointment.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) (*appointment.Appointment, error)
	Reschedule(ctx context.Context, actor appointment.Actor, id, scheduledAt, date, clock string) (*appointment.Appointment, error)
	DayStats(ctx context.Context, day time.Time) (appointment.DayStats, error)
	WeekStats(ctx context.Context, year int, month time.Month, week int) (appointment.WeekStats, error)
	Summary(ctx context.Context, uid string) (appointment.PatientSummary, error)
	Slots(day time.Time) []appointment.Slot
}

type RecordService interface {
	Add(ctx context.Context, in healthrecord.Input) (*healthrecord.Record, error)
	Update(ctx context.Context, id string, patch healthrecord.Patch) (*healthrecord.Record, error)
	Delete(ctx context.Context, id string) error
	ListForPatient(ctx context.Context, uid, filter string, newestFirst bool) ([]healthrecord.Record, error)
	Summary(ctx context.Context, uid string) (healthrecord.Summary, error)
}

type InventoryService interface {
	Add(ctx context.Context, in inventory.Input) (*inventory.Product, error)
	Get(ctx context.Context, id string) (*inventory.Product, error)
	Update(ctx context.Context, id string, patch inventory.Patch) (*inventory.Product, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q inventory.Query) ([]inventory.Product, error)
	Summary(ctx context.Context) (inventory.Summary, error)
}

type RouterConfig struct {
	Users        UserService
	Patients     PatientService
	Appointments AppointmentService
	Records      RecordService
	Inventory    InventoryService
	Tokens       *auth.Tokens
	Postgres     Pinger
	Redis        Pinger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoverMiddleware)

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/catalog", catalogHandler())
	r.Get("/catalog/slots", slotsHandler(cfg.Appointments))
	r.Get("/risk-assessment/questions", questionsHandler())
	r.Post("/risk-assessment/score", scoreHandler())
	r.Post("/auth/register", registerHandler(cfg.Users, cfg.Tokens))
	r.Post("/auth/login", loginHandler(cfg.Users, cfg.Tokens))

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(cfg.Tokens))
		r.Use(ActiveAccountMiddleware(cfg.Users))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", meHandler(cfg.Users))
			r.Put("/password", changePasswordHandler(cfg.Users))
			r.Get("/assessment", getAssessmentHandler(cfg.Users))
			r.Put("/assessment", saveAssessmentHandler(cfg.Users))
			r.Get("/profile", myProfileHandler(cfg.Patients))
			r.Put("/profile", updateMyProfileHandler(cfg.Patients))
			r.Post("/appointments", bookAppointmentHandler(cfg.Appointments, false))
			r.Get("/appointments", myAppointmentsHandler(cfg.Appointments))
			r.Get("/appointments/summary", myAppointmentSummaryHandler(cfg.Appointments))
			r.Put("/appointments/{id}/schedule", rescheduleHandler(cfg.Appointments, false))
			r.Get("/health-records", myRecordsHandler(cfg.Records))
			r.Get("/health-records/summary", myRecordSummaryHandler(cfg.Records))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireStaff)

			r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
			r.Post("/appointments", bookAppointmentHandler(cfg.Appointments, true))
			r.Get("/appointments/stats/day", dayStatsHandler(cfg.Appointments))
			r.Get("/appointments/stats/week", weekStatsHandler(cfg.Appointments))
			r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
			r.Put("/appointments/{id}/status", updateStatusHandler(cfg.Appointments))
			r.Put("/appointments/{id}/schedule", rescheduleHandler(cfg.Appointments, true))

			r.Get("/patients", searchPatientsHandler(cfg.Patients))
			r.Get("/patients/{id}", getPatientHandler(cfg.Patients))
			r.Put("/patients/{id}", updatePatientHandler(cfg.Patients))
			r.Get("/patients/{id}/health-records", patientRecordsHandler(cfg.Patients, cfg.Records))

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(user.RoleClinician, user.RoleEncoder))
				r.Post("/health-records", addRecordHandler(cfg.Records))
				r.Put("/health-records/{id}", updateRecordHandler(cfg.Records))
				r.Delete("/health-records/{id}", deleteRecordHandler(cfg.Records))
			})

			r.Get("/products", searchProductsHandler(cfg.Inventory))
			r.Get("/products/summary", productSummaryHandler(cfg.Inventory))
			r.Post("/products", addProductHandler(cfg.Inventory))
			r.Get("/products/{id}", getProductHandler(cfg.Inventory))
			r.Put("/products/{id}", updateProductHandler(cfg.Inventory))
			r.Delete("/products/{id}", deleteProductHandler(cfg.Inventory))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(user.RoleAdmin))

			r.Get("/users", listUsersHandler(cfg.Users))
			r.Post("/users", createUserHandler(cfg.Users))
			r.Get("/users/{uid}", getUserHandler(cfg.Users))
			r.Put("/users/{uid}", updateUserHandler(cfg.Users))
			r.Delete("/users/{uid}", deleteUserHandler(cfg.Users))
		})
	})

	return r
}
