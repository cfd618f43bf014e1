package appointment

import (
	"sort"
	"strings"

	"github.com/sailcare/clinic-api/internal/clinictime"
)

// Predicate selects appointments; Filter keeps those matching every predicate.
type Predicate func(Appointment) bool

// SortOrder is the Newest/Oldest toggle of the list screens.
type SortOrder string

const (
	Newest SortOrder = "Newest"
	Oldest SortOrder = "Oldest"
)

// ParseSortOrder defaults to Newest for anything it does not recognise.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(Oldest)) {
		return Oldest
	}
	return Newest
}

// ByDateKey matches appointments scheduled on the MM-dd-yy day.
func ByDateKey(key string) Predicate {
	return func(a Appointment) bool {
		return !a.ScheduledAt.IsZero() && clinictime.DateKey(a.ScheduledAt) == key
	}
}

func ByUID(uid string) Predicate {
	return func(a Appointment) bool { return a.UID == uid }
}

// ByStatus compares case-insensitively since statuses are hand-typed labels.
func ByStatus(status string) Predicate {
	return func(a Appointment) bool { return strings.EqualFold(a.Status, status) }
}

func ByVisitType(visitType string) Predicate {
	return func(a Appointment) bool { return strings.EqualFold(a.VisitType, visitType) }
}

// NameContains is the search box of the appointment table.
func NameContains(q string) Predicate {
	q = strings.ToLower(strings.TrimSpace(q))
	return func(a Appointment) bool { return strings.Contains(strings.ToLower(a.FullName), q) }
}

func Filter(list []Appointment, preds ...Predicate) []Appointment {
	out := make([]Appointment, 0, len(list))
	for _, a := range list {
		if matchAll(a, preds) {
			out = append(out, a)
		}
	}
	return out
}

func matchAll(a Appointment, preds []Predicate) bool {
	for _, p := range preds {
		if p != nil && !p(a) {
			return false
		}
	}
	return true
}

// SortByScheduled orders in place by scheduled time. Appointments without a
// time always sink to the end; ties keep their input order.
func SortByScheduled(list []Appointment, order SortOrder) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].ScheduledAt, list[j].ScheduledAt
		switch {
		case a.IsZero() || b.IsZero():
			return !a.IsZero() && b.IsZero()
		case order == Oldest:
			return a.Before(b)
		default:
			return a.After(b)
		}
	})
}
