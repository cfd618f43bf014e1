package appointment

import (
	"errors"
	"math"
	"time"

	"github.com/sailcare/clinic-api/internal/clinictime"
)

var ErrInvalidWeek = errors.New("week must be between 1 and 4")

// NextTestInterval is how long after a completed HIV test the next one is suggested.
const NextTestInterval = 90 * 24 * time.Hour

// DayStats backs the admin appointment screen header cards.
type DayStats struct {
	Date            string `json:"date"`
	Total           int    `json:"total"`
	WalkIns         int    `json:"walk_ins"`
	UpcomingNextDay int    `json:"upcoming_next_day"`
}

func DayCounts(list []Appointment, day time.Time) DayStats {
	key := clinictime.DateKey(day)
	nextKey := clinictime.DateKey(clinictime.StartOfDay(day).AddDate(0, 0, 1))

	st := DayStats{Date: key}
	for _, a := range list {
		if a.ScheduledAt.IsZero() {
			continue
		}
		switch clinictime.DateKey(a.ScheduledAt) {
		case key:
			st.Total++
			if a.VisitType == VisitWalkIn {
				st.WalkIns++
			}
		case nextKey:
			if a.Status != StatusCanceled {
				st.UpcomingNextDay++
			}
		}
	}
	return st
}

// DayPoint is one weekday column of the dashboard chart.
type DayPoint struct {
	Name       string `json:"name"`
	HighRisk   int    `json:"High-Risk"`
	MediumRisk int    `json:"Medium-Risk"`
	Total      int    `json:"total"`
}

type Forecast struct {
	Total      int `json:"total"`
	HighRisk   int `json:"high_risk"`
	MediumRisk int `json:"medium_risk"`
}

type WeekStats struct {
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	Week       int        `json:"week"`
	YearCount  int        `json:"year_count"`
	MonthCount int        `json:"month_count"`
	WeekCount  int        `json:"week_count"`
	Chart      []DayPoint `json:"chart"`
	Forecast   Forecast   `json:"forecast"`
}

// weekBounds maps the dashboard's week selector to days of the month.
// Week 4 absorbs everything from the 22nd to the end of the month.
func weekBounds(week int) (first, last int, err error) {
	switch week {
	case 1:
		return 1, 7, nil
	case 2:
		return 8, 14, nil
	case 3:
		return 15, 21, nil
	case 4:
		return 22, 31, nil
	}
	return 0, 0, ErrInvalidWeek
}

// WeeklyStats computes the dashboard counters for year/month/week in the clinic zone.
func WeeklyStats(list []Appointment, year int, month time.Month, week int) (WeekStats, error) {
	first, last, err := weekBounds(week)
	if err != nil {
		return WeekStats{}, err
	}

	st := WeekStats{Year: year, Month: int(month), Week: week, Chart: make([]DayPoint, 7)}
	for d := time.Sunday; d <= time.Saturday; d++ {
		st.Chart[d].Name = d.String()[:3]
	}

	var high, med int
	for _, a := range list {
		if a.ScheduledAt.IsZero() {
			continue
		}
		t := a.ScheduledAt.In(clinictime.Zone)
		if t.Year() != year {
			continue
		}
		st.YearCount++
		if t.Month() != month {
			continue
		}
		st.MonthCount++
		if t.Day() < first || t.Day() > last {
			continue
		}
		st.WeekCount++

		p := &st.Chart[t.Weekday()]
		if a.Status == StatusHighRisk {
			p.HighRisk++
			high++
		} else {
			p.MediumRisk++
			med++
		}
		p.Total++
	}

	st.Forecast = Forecast{
		Total:      int(math.Round(float64(high+med) * 1.1)),
		HighRisk:   int(math.Round(float64(high) * 1.2)),
		MediumRisk: int(math.Round(float64(med) * 1.05)),
	}
	return st, nil
}

// PatientSummary backs the patient home screen.
type PatientSummary struct {
	LastHIVTest   *Appointment `json:"last_hiv_test,omitempty"`
	SuggestedNext *time.Time   `json:"suggested_next_test,omitempty"`
	NextUpcoming  *Appointment `json:"next_upcoming,omitempty"`
}

func Summarize(list []Appointment, now time.Time) PatientSummary {
	var sum PatientSummary
	for i := range list {
		a := list[i]
		if a.ScheduledAt.IsZero() {
			continue
		}
		if a.ServiceType == ServiceHIVTesting && a.Status == StatusCompleted {
			if sum.LastHIVTest == nil || a.ScheduledAt.After(sum.LastHIVTest.ScheduledAt) {
				sum.LastHIVTest = &a
			}
		}
		if a.ScheduledAt.After(now) && a.Status != StatusCanceled {
			if sum.NextUpcoming == nil || a.ScheduledAt.Before(sum.NextUpcoming.ScheduledAt) {
				sum.NextUpcoming = &a
			}
		}
	}
	if sum.LastHIVTest != nil {
		next := sum.LastHIVTest.ScheduledAt.Add(NextTestInterval)
		sum.SuggestedNext = &next
	}
	return sum
}
