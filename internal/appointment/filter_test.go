package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sailcare/clinic-api/internal/clinictime"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, clinictime.Zone)
}

func sampleAppointments() []Appointment {
	return []Appointment{
		{ID: "1", UID: "u1", FullName: "Ana Cruz", VisitType: VisitFirst, Status: StatusCompleted, ScheduledAt: at(2025, 6, 2, 13)},
		{ID: "2", UID: "u2", FullName: "Ben Reyes", VisitType: VisitWalkIn, Status: StatusOnGoing, ScheduledAt: at(2025, 6, 2, 15)},
		{ID: "3", UID: "u1", FullName: "Ana Cruz", VisitType: VisitFollowUp, Status: StatusUpcoming, ScheduledAt: at(2025, 6, 3, 14)},
		{ID: "4", UID: "u3", FullName: "Carla Diaz", VisitType: VisitWalkIn, Status: StatusCanceled, ScheduledAt: at(2025, 6, 3, 16)},
		{ID: "5", UID: "u2", FullName: "Ben Reyes", VisitType: VisitScheduled, Status: StatusUpcoming},
	}
}

func ids(list []Appointment) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestFilterByDateKeyReturnsExactSubset(t *testing.T) {
	got := Filter(sampleAppointments(), ByDateKey("06-02-25"))
	assert.Equal(t, []string{"1", "2"}, ids(got))

	got = Filter(sampleAppointments(), ByDateKey("06-04-25"))
	assert.Empty(t, got)
}

func TestFilterCombinesPredicates(t *testing.T) {
	tests := []struct {
		name  string
		preds []Predicate
		want  []string
	}{
		{"no predicates", nil, []string{"1", "2", "3", "4", "5"}},
		{"uid", []Predicate{ByUID("u1")}, []string{"1", "3"}},
		{"status case-insensitive", []Predicate{ByStatus("upcoming")}, []string{"3", "5"}},
		{"visit type and day", []Predicate{ByVisitType(VisitWalkIn), ByDateKey("06-03-25")}, []string{"4"}},
		{"name contains", []Predicate{NameContains("reyes")}, []string{"2", "5"}},
		{"nil predicate ignored", []Predicate{nil, ByUID("u3")}, []string{"4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sampleAppointments(), tt.preds...)))
		})
	}
}

func TestSortByScheduled(t *testing.T) {
	list := sampleAppointments()
	SortByScheduled(list, Newest)
	assert.Equal(t, []string{"4", "3", "2", "1", "5"}, ids(list))

	SortByScheduled(list, Oldest)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(list))
}

func TestNewestOrdersDescending(t *testing.T) {
	list := Filter(sampleAppointments(), func(a Appointment) bool { return !a.ScheduledAt.IsZero() })
	SortByScheduled(list, Newest)
	for i := 1; i < len(list); i++ {
		require.False(t, list[i].ScheduledAt.After(list[i-1].ScheduledAt))
	}
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, Oldest, ParseSortOrder("oldest"))
	assert.Equal(t, Newest, ParseSortOrder("Newest"))
	assert.Equal(t, Newest, ParseSortOrder(""))
	assert.Equal(t, Newest, ParseSortOrder("sideways"))
}
