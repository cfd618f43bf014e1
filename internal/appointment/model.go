package appointment

import (
	"time"
)

// Status is a free-form label; these are the ones the clinic uses.
const (
	StatusUpcoming  = "Upcoming"
	StatusOnGoing   = "On-Going"
	StatusCompleted = "Completed"
	StatusCanceled  = "Canceled"
	StatusHighRisk  = "High-Risk"
)

const (
	VisitFirst     = "First Visit to the Clinic"
	VisitFollowUp  = "Follow-UP Visit to the Clinic"
	VisitWalkIn    = "Walk-In"
	VisitScheduled = "Scheduled"
)

const ServiceHIVTesting = "HIV Testing"

type Appointment struct {
	ID          string    `json:"id"`
	UID         string    `json:"uid"`
	FullName    string    `json:"full_name"`
	ServiceType string    `json:"service_type"`
	VisitType   string    `json:"visit_type"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Attachment  string    `json:"attachment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *string
	Payload       []byte
	CreatedAt     time.Time
}

// BookingInput is what a booking form submits. The scheduled time comes either
// from ScheduledAt (any clinic timestamp layout) or from Date plus a Time label.
type BookingInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	VisitType   string `json:"visit_type"`
	ServiceType string `json:"service_type"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Attachment  string `json:"attachment,omitempty"`
	// UID books on behalf of a patient account; only staff may set it.
	UID string `json:"uid,omitempty"`
}

// ListQuery narrows what the repository loads; the remaining predicates run in memory.
type ListQuery struct {
	UID  string
	From *time.Time
	To   *time.Time
}
