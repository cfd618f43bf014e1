package api

import (
	"time"

	"github.com/sailcare/clinic-api/internal/user"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *user.User `json:"user"`
}

type RegisterResponse struct {
	*user.Registration
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// ScheduleRequest carries either a full timestamp or a date plus a slot label.
type ScheduleRequest struct {
	ScheduledAt string `json:"scheduled_at"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}
