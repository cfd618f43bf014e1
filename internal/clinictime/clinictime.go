// Package clinictime owns the one timestamp grammar used at the edges of the API.
// Storage always holds structured timestamps; the "2006-01-02 at 03:04:05 PM UTC+8"
// string only exists in requests, responses and legacy payloads.
package clinictime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	ErrEmpty       = errors.New("empty timestamp")
	ErrUnparseable = errors.New("unparseable timestamp")
)

const clinicOffset = 8 * 60 * 60

// Zone is the clinic's wall clock, a fixed UTC+8 offset.
var Zone = time.FixedZone("UTC+8", clinicOffset)

const (
	canonicalLayout = "2006-01-02 at 03:04:05 PM"
	dateKeyLayout   = "01-02-06"
	clockLayout     = "3:04 PM"
)

var (
	offsetSuffix = regexp.MustCompile(`\s*UTC(?:([+-])(\d{1,2})(?::?(\d{2}))?)?$`)
	spaceRun     = regexp.MustCompile(`\s+`)

	dateLayouts = []string{"2006-01-02", "January 2, 2006", "Jan 2, 2006"}
	timeLayouts = []string{"3:04:05 PM", "3:04 PM"}
)

// Parse reads a structured RFC 3339 timestamp or one of the clinic string layouts:
//
//	2025-06-02 at 12:00:00 PM UTC+8
//	June 2, 2025 at 12:00:00 PM UTC+8
//
// The UTC suffix may be UTC, UTC±H, UTC±HH or UTC±HH:MM; without it the clinic zone is assumed.
func Parse(s string) (time.Time, error) {
	s = normalize(s)
	if s == "" {
		return time.Time{}, ErrEmpty
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	datePart, clockPart, ok := strings.Cut(s, " at ")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
	}

	loc := Zone
	if m := offsetSuffix.FindStringSubmatchIndex(clockPart); m != nil {
		zone, err := zoneFromSuffix(clockPart[m[0]:])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
		}
		loc = zone
		clockPart = strings.TrimSpace(clockPart[:m[0]])
	}

	clockPart = strings.ToUpper(clockPart)
	for _, dl := range dateLayouts {
		for _, tl := range timeLayouts {
			if t, err := time.ParseInLocation(dl+" "+tl, datePart+" "+clockPart, loc); err == nil {
				return t, nil
			}
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
}

// Format renders t in the canonical clinic layout.
func Format(t time.Time) string {
	return t.In(Zone).Format(canonicalLayout) + " UTC+8"
}

// DateKey is the MM-dd-yy day key the dashboards group by.
func DateKey(t time.Time) string {
	return t.In(Zone).Format(dateKeyLayout)
}

// ClockLabel renders the booking time label, e.g. "2:00 PM".
func ClockLabel(t time.Time) string {
	return t.In(Zone).Format(clockLayout)
}

// ParseClock reads a booking label such as "2:00 PM" or "2 PM".
func ParseClock(label string) (hour, minute int, err error) {
	label = strings.ToUpper(normalize(label))
	for _, layout := range []string{clockLayout, "3 PM", "15:04"} {
		if t, perr := time.Parse(layout, label); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: clock %q", ErrUnparseable, label)
}

// At combines a calendar day with a booking label in the clinic zone.
func At(day time.Time, label string) (time.Time, error) {
	h, m, err := ParseClock(label)
	if err != nil {
		return time.Time{}, err
	}
	d := day.In(Zone)
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, Zone), nil
}

// ParseQueryDate is the lenient reader for list filters and form dates
// ("2025-06-02", "06/02/2025", "June 2, 2025", or any Parse layout).
func ParseQueryDate(s string) (time.Time, error) {
	s = normalize(s)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	if t, err := Parse(s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateKeyLayout, s, Zone); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(s, Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
	}
	return t, nil
}

// StartOfDay returns midnight of t's calendar day in the clinic zone.
func StartOfDay(t time.Time) time.Time {
	d := t.In(Zone)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, Zone)
}

func normalize(s string) string {
	s = strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(s)
	return spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

func zoneFromSuffix(suffix string) (*time.Location, error) {
	m := offsetSuffix.FindStringSubmatch(suffix)
	if m == nil {
		return nil, ErrUnparseable
	}
	if m[1] == "" {
		return time.UTC, nil
	}

	hours, err := strconv.Atoi(m[2])
	if err != nil || hours > 14 {
		return nil, ErrUnparseable
	}
	minutes := 0
	if m[3] != "" {
		minutes, err = strconv.Atoi(m[3])
		if err != nil || minutes > 59 {
			return nil, ErrUnparseable
		}
	}

	offset := hours*3600 + minutes*60
	if m[1] == "-" {
		offset = -offset
	}
	if offset == clinicOffset {
		return Zone, nil
	}
	return time.FixedZone(strings.TrimSpace(suffix), offset), nil
}
