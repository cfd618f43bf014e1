package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sailcare/clinic-api/internal/clinictime"
	"github.com/sailcare/clinic-api/internal/config"
	"github.com/sailcare/clinic-api/internal/logger"
	redisclient "github.com/sailcare/clinic-api/internal/redis"
	"github.com/sailcare/clinic-api/internal/validation"
)

const (
	EventAppointmentBooked        = "APPOINTMENT_BOOKED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentRescheduled   = "APPOINTMENT_RESCHEDULED"
)

const sequenceName = "appointments"

var (
	ErrBookingTooSoon    = errors.New("appointment time is too soon")
	ErrBookingInProgress = errors.New("a booking for this patient is in progress, please retry")
	ErrDuplicateBooking  = errors.New("patient already has an appointment at this time")
	ErrInvalidStatus     = errors.New("status must not be empty")
	ErrNotOwner          = errors.New("appointment belongs to another patient")
)

// Actor is who performs an operation. Staff may act on any patient's bookings.
type Actor struct {
	UID   string
	Staff bool
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	seq    redisclient.Sequencer
	cfg    config.Config
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, seq redisclient.Sequencer, cfg config.Config) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		seq:    seq,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithClock replaces the time source; tests pin it.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ResolveTime reads the scheduled time from a booking or reschedule payload.
func ResolveTime(scheduledAt, date, clock string) (time.Time, error) {
	if strings.TrimSpace(scheduledAt) != "" {
		return clinictime.Parse(scheduledAt)
	}
	day, err := clinictime.ParseQueryDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if strings.TrimSpace(clock) == "" {
		return time.Time{}, fmt.Errorf("%w: missing time", clinictime.ErrUnparseable)
	}
	return clinictime.At(day, clock)
}

func (s *Service) validateBooking(actor Actor, in BookingInput) (time.Time, error) {
	fe := validation.FieldErrors{}
	fe.Required("first_name", in.FirstName)
	fe.Required("last_name", in.LastName)

	hasVisit := fe.Required("visit_type", in.VisitType)
	hasService := fe.Required("service_type", in.ServiceType)
	if hasVisit && hasService {
		staffOnly := IsStaffVisitType(in.VisitType)
		switch {
		case staffOnly && !actor.Staff:
			fe.Add("visit_type", "is only available to clinic staff")
		case !staffOnly && !Offers(in.VisitType, in.ServiceType):
			fe.Add("service_type", "is not offered for this visit type")
		}
	}

	at, err := ResolveTime(in.ScheduledAt, in.Date, in.Time)
	if err != nil {
		fe.Add("scheduled_at", "must be a valid date and time")
	}

	if in.UID != "" && in.UID != actor.UID && !actor.Staff {
		fe.Add("uid", "cannot book for another patient")
	}

	return at, fe.Err()
}

// Book creates an appointment with the next sequential id and status Upcoming.
// Bookings for one patient are serialised so a double submit cannot create two
// appointments at the same time.
func (s *Service) Book(ctx context.Context, actor Actor, in BookingInput) (*Appointment, error) {
	at, err := s.validateBooking(actor, in)
	if err != nil {
		return nil, err
	}
	if !actor.Staff && at.Before(s.now().Add(s.cfg.BookingLeadTime)) {
		return nil, fmt.Errorf("%w: must be at least %s from now", ErrBookingTooSoon, s.cfg.BookingLeadTime)
	}

	uid := actor.UID
	if actor.Staff && in.UID != "" {
		uid = in.UID
	}

	appt := Appointment{
		UID:         uid,
		FullName:    strings.TrimSpace(in.FirstName) + " " + strings.TrimSpace(in.LastName),
		ServiceType: strings.TrimSpace(in.ServiceType),
		VisitType:   strings.TrimSpace(in.VisitType),
		Status:      StatusUpcoming,
		ScheduledAt: at,
		Attachment:  in.Attachment,
	}

	lockKey := "booking:" + uid
	if uid == "" {
		lockKey = "booking:walk-in:" + strings.ToLower(appt.FullName)
	}

	var created *Appointment
	err = s.locker.WithLock(ctx, lockKey, func(lockCtx context.Context) error {
		if uid != "" {
			existing, err := s.repo.List(lockCtx, ListQuery{UID: uid})
			if err != nil {
				return fmt.Errorf("check existing bookings: %w", err)
			}
			for _, e := range existing {
				if e.ScheduledAt.Equal(at) && e.Status != StatusCanceled {
					return ErrDuplicateBooking
				}
			}
		}

		c, err := s.create(lockCtx, appt)
		if err != nil {
			return err
		}
		created = c

		s.logEvent(lockCtx, c.ID, EventAppointmentBooked, map[string]any{
			"uid":          c.UID,
			"service_type": c.ServiceType,
			"visit_type":   c.VisitType,
			"scheduled_at": clinictime.Format(c.ScheduledAt),
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	return created, nil
}

// create allocates the id and inserts; a duplicate id means the sequence fell
// behind the table, so it is resynced and the insert retried once.
func (s *Service) create(ctx context.Context, appt Appointment) (*Appointment, error) {
	for attempt := 0; ; attempt++ {
		id, err := s.seq.Next(ctx, sequenceName, s.repo.MaxNumericID)
		if err != nil {
			return nil, fmt.Errorf("allocate appointment id: %w", err)
		}
		appt.ID = id

		created, err := s.repo.Create(ctx, appt)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrDuplicateID) || attempt > 0 {
			return nil, fmt.Errorf("create appointment: %w", err)
		}

		logger.L().Warnw("appointment id collision, resyncing sequence", "id", id)
		if err := s.seq.Resync(ctx, sequenceName, s.repo.MaxNumericID); err != nil {
			return nil, fmt.Errorf("resync appointment ids: %w", err)
		}
	}
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if !actor.Staff && a.UID != actor.UID {
		return nil, ErrNotOwner
	}
	return a, nil
}

// Query is the admin appointment table's filter bar.
type Query struct {
	Date      string
	Status    string
	VisitType string
	UID       string
	Name      string
	Sort      SortOrder
}

func (s *Service) List(ctx context.Context, q Query) ([]Appointment, error) {
	lq := ListQuery{UID: q.UID}
	var preds []Predicate

	if q.Date != "" {
		day, err := clinictime.ParseQueryDate(q.Date)
		if err != nil {
			return nil, validation.FieldErrors{"date": "must be a valid date"}
		}
		from := clinictime.StartOfDay(day)
		to := from.AddDate(0, 0, 1)
		lq.From, lq.To = &from, &to
		preds = append(preds, ByDateKey(clinictime.DateKey(day)))
	}
	if q.Status != "" {
		preds = append(preds, ByStatus(q.Status))
	}
	if q.VisitType != "" {
		preds = append(preds, ByVisitType(q.VisitType))
	}
	if q.Name != "" {
		preds = append(preds, NameContains(q.Name))
	}

	all, err := s.repo.List(ctx, lq)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	out := Filter(all, preds...)
	SortByScheduled(out, q.Sort)
	return out, nil
}

func (s *Service) ListForUser(ctx context.Context, uid string, order SortOrder) ([]Appointment, error) {
	return s.List(ctx, Query{UID: uid, Sort: order})
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Appointment, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, ErrInvalidStatus
	}

	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logEvent(ctx, id, EventAppointmentStatusChanged, map[string]any{
		"from": before.Status,
		"to":   updated.Status,
	})
	return updated, nil
}

// Reschedule moves an appointment; patients may only move their own, and not
// closer than the booking lead time.
func (s *Service) Reschedule(ctx context.Context, actor Actor, id, scheduledAt, date, clock string) (*Appointment, error) {
	at, err := ResolveTime(scheduledAt, date, clock)
	if err != nil {
		return nil, validation.FieldErrors{"scheduled_at": "must be a valid date and time"}
	}

	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.Staff && at.Before(s.now().Add(s.cfg.BookingLeadTime)) {
		return nil, fmt.Errorf("%w: must be at least %s from now", ErrBookingTooSoon, s.cfg.BookingLeadTime)
	}

	updated, err := s.repo.UpdateSchedule(ctx, id, at)
	if err != nil {
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}

	s.logEvent(ctx, id, EventAppointmentRescheduled, map[string]any{
		"from": clinictime.Format(current.ScheduledAt),
		"to":   clinictime.Format(updated.ScheduledAt),
		"by":   actor.UID,
	})
	return updated, nil
}

// DayStats covers the selected day plus the next, for the "upcoming tomorrow" card.
func (s *Service) DayStats(ctx context.Context, day time.Time) (DayStats, error) {
	from := clinictime.StartOfDay(day)
	to := from.AddDate(0, 0, 2)

	list, err := s.repo.List(ctx, ListQuery{From: &from, To: &to})
	if err != nil {
		return DayStats{}, fmt.Errorf("list appointments: %w", err)
	}
	return DayCounts(list, day), nil
}

func (s *Service) WeekStats(ctx context.Context, year int, month time.Month, week int) (WeekStats, error) {
	if _, _, err := weekBounds(week); err != nil {
		return WeekStats{}, err
	}

	from := time.Date(year, 1, 1, 0, 0, 0, 0, clinictime.Zone)
	to := from.AddDate(1, 0, 0)

	list, err := s.repo.List(ctx, ListQuery{From: &from, To: &to})
	if err != nil {
		return WeekStats{}, fmt.Errorf("list appointments: %w", err)
	}
	return WeeklyStats(list, year, month, week)
}

func (s *Service) Summary(ctx context.Context, uid string) (PatientSummary, error) {
	list, err := s.repo.List(ctx, ListQuery{UID: uid})
	if err != nil {
		return PatientSummary{}, fmt.Errorf("list appointments: %w", err)
	}
	return Summarize(list, s.now()), nil
}

func (s *Service) Slots(day time.Time) []Slot {
	return SlotsFor(day, s.now(), s.cfg.BookingLeadTime)
}

func (s *Service) logEvent(ctx context.Context, appointmentID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.L().Warnw("failed to marshal event payload", "event", eventType, "error", err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		logger.L().Errorw("failed to insert event log", "event", eventType, "appointment_id", appointmentID, "error", err)
	}
}
