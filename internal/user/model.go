package user

import (
	"time"

	"github.com/sailcare/clinic-api/internal/appointment"
	"github.com/sailcare/clinic-api/internal/patient"
	"github.com/sailcare/clinic-api/internal/risk"
)

const (
	RolePatient     = "patient"
	RoleAdmin       = "admin"
	RoleClinician   = "clinician"
	RoleEncoder     = "encoder"
	RoleCaseManager = "case manager"
	RoleAssistant   = "assistant"
)

var Roles = []string{RolePatient, RoleAdmin, RoleClinician, RoleEncoder, RoleCaseManager, RoleAssistant}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

type User struct {
	UID          string      `json:"uid"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Role         string      `json:"role"`
	Status       string      `json:"status"`
	PasswordHash string      `json:"-"`
	Assessment   risk.Record `json:"assessment_record,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// RegisterInput is the self-registration form, optionally carrying the risk
// answers and the booking collected earlier in the same flow.
type RegisterInput struct {
	FirstName       string                    `json:"first_name"`
	LastName        string                    `json:"last_name"`
	Email           string                    `json:"email"`
	Phone           string                    `json:"phone"`
	Password        string                    `json:"password"`
	ConfirmPassword string                    `json:"confirm_password"`
	Assessment      risk.Answers              `json:"assessment,omitempty"`
	Booking         *appointment.BookingInput `json:"booking,omitempty"`
}

// Registration reports what was created. Warnings list the follow-up steps that
// failed after the account itself was stored.
type Registration struct {
	User        *User                    `json:"user"`
	Patient     *patient.Patient         `json:"patient,omitempty"`
	Assessment  *risk.Result             `json:"assessment,omitempty"`
	Appointment *appointment.Appointment `json:"appointment,omitempty"`
	Warnings    []string                 `json:"warnings,omitempty"`
}

// AccountInput is the admin create-account form.
type AccountInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Password  string `json:"password"`
}

type Patch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Role      *string `json:"role,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// ListFilter is the users table search: exact uid or first-name contains, plus role.
type ListFilter struct {
	UID       string
	FirstName string
	Role      string
}
