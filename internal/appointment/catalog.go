package appointment

import (
	"time"

	"github.com/sailcare/clinic-api/internal/clinictime"
)

type Offering struct {
	Name        string        `json:"name"`
	Duration    time.Duration `json:"-"`
	DurationTag string        `json:"duration"`
	Description string        `json:"description"`
	Doctors     []string      `json:"doctors,omitempty"`
}

type VisitType struct {
	Name     string   `json:"name"`
	Services []string `json:"services"`
}

type Catalog struct {
	VisitTypes []VisitType `json:"visit_types"`
	Services   []Offering  `json:"services"`
	TimeSlots  []string    `json:"time_slots"`
}

var offerings = []Offering{
	{
		Name: "Rapid HIV Test", Duration: 20 * time.Minute, DurationTag: "20 Minutes",
		Description: "A quick and confidential HIV screening that provides accurate results within minutes.",
	},
	{
		Name: "Start your HIV Treatment", Duration: time.Hour, DurationTag: "1 hour",
		Description: "Begin antiretroviral therapy (ART) to control the virus and prevent transmission.",
	},
	{
		Name: "Start your PrEP", Duration: 50 * time.Minute, DurationTag: "50 minutes",
		Description: "Pre-exposure prophylaxis for people at risk of HIV.",
	},
	{
		Name: "ARV Refill Pickup", Duration: 30 * time.Minute, DurationTag: "30 minutes",
		Description: "Pick up your antiretroviral refill.",
	},
	{
		Name: "PrEP Refill Pickup", Duration: 20 * time.Minute, DurationTag: "20 minutes",
		Description: "Pick up your PrEP refill.",
	},
	{
		Name: "Doctor Consultation", Duration: time.Hour, DurationTag: "1 hour",
		Description: "In-person consultation with a licensed provider for sexual health concerns.",
		Doctors:     []string{"John Christopher Gardiola", "Martin Diones", "Russel Wagan"},
	},
}

var visitTypes = []VisitType{
	{Name: VisitFirst, Services: []string{"Rapid HIV Test", "Start your HIV Treatment", "Start your PrEP"}},
	{Name: VisitFollowUp, Services: []string{"Rapid HIV Test", "ARV Refill Pickup", "PrEP Refill Pickup", "Doctor Consultation"}},
}

var timeSlots = []string{"1:00 PM", "2:00 PM", "3:00 PM", "4:00 PM", "5:00 PM"}

// DefaultCatalog returns copies, callers may not mutate the package tables.
func DefaultCatalog() Catalog {
	c := Catalog{
		VisitTypes: make([]VisitType, len(visitTypes)),
		Services:   make([]Offering, len(offerings)),
		TimeSlots:  append([]string(nil), timeSlots...),
	}
	copy(c.VisitTypes, visitTypes)
	copy(c.Services, offerings)
	return c
}

// Offers reports whether the self-service booking flow lists service under visitType.
func Offers(visitType, service string) bool {
	for _, vt := range visitTypes {
		if vt.Name != visitType {
			continue
		}
		for _, s := range vt.Services {
			if s == service {
				return true
			}
		}
	}
	return false
}

// IsStaffVisitType covers visit types only staff record.
func IsStaffVisitType(visitType string) bool {
	return visitType == VisitWalkIn || visitType == VisitScheduled
}

type Slot struct {
	Label     string    `json:"label"`
	At        time.Time `json:"at"`
	Available bool      `json:"available"`
}

// SlotsFor lists the day's booking slots; a slot closer than lead to now is unavailable.
func SlotsFor(day, now time.Time, lead time.Duration) []Slot {
	slots := make([]Slot, 0, len(timeSlots))
	for _, label := range timeSlots {
		at, err := clinictime.At(day, label)
		if err != nil {
			continue
		}
		slots = append(slots, Slot{Label: label, At: at, Available: !at.Before(now.Add(lead))})
	}
	return slots
}
