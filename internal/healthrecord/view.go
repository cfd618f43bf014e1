package healthrecord

import (
	"sort"
	"strings"
	"time"

	"github.com/sailcare/clinic-api/internal/clinictime"
)

// Record-type filter values of the records table. Any other value matches the type exactly.
const (
	FilterAll = "All Records"
	FilterHIV = "HIV Test"
	FilterLab = "Lab Test"
)

func isHIV(r Record) bool { return strings.Contains(strings.ToLower(r.RecordType), "hiv") }
func isLab(r Record) bool { return strings.Contains(strings.ToLower(r.RecordType), "lab") }

func FilterByType(list []Record, filter string) []Record {
	filter = strings.TrimSpace(filter)

	var match func(Record) bool
	switch filter {
	case "", FilterAll:
		match = func(Record) bool { return true }
	case FilterHIV:
		match = isHIV
	case FilterLab:
		match = isLab
	default:
		match = func(r Record) bool { return r.RecordType == filter }
	}

	out := make([]Record, 0, len(list))
	for _, r := range list {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortByTestDate orders in place; ties keep their input order.
func SortByTestDate(list []Record, newestFirst bool) {
	sort.SliceStable(list, func(i, j int) bool {
		if newestFirst {
			return list[i].TestDate.After(list[j].TestDate)
		}
		return list[i].TestDate.Before(list[j].TestDate)
	})
}

// Summarize counts records, and HIV and lab tests dated in now's clinic year.
func Summarize(list []Record, now time.Time) Summary {
	year := now.In(clinictime.Zone).Year()

	s := Summary{Total: len(list)}
	for _, r := range list {
		if r.TestDate.In(clinictime.Zone).Year() != year {
			continue
		}
		if isHIV(r) {
			s.HIVTestsThisYear++
		}
		if isLab(r) {
			s.LabTestsThisYear++
		}
	}
	return s
}
