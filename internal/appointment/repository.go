package appointment

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDuplicateID         = errors.New("appointment id already exists")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	Create(ctx context.Context, a Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, q ListQuery) ([]Appointment, error)

	UpdateStatus(ctx context.Context, id, status string) (*Appointment, error)
	UpdateSchedule(ctx context.Context, id string, at time.Time) (*Appointment, error)

	// Highest numeric id stored, used to seed the id sequence.
	MaxNumericID(ctx context.Context) (int64, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
