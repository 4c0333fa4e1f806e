// File: internal/usecase/datetime_es.go
package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extracted parameter names and their wire formats.
const (
	paramDate     = "date"     // 2006-01-02
	paramTime     = "time"     // 15:04
	paramDatetime = "datetime" // RFC3339, set when a draft is promoted

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	isoDateRe = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	dmyDateRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)

	clockRe        = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	atHourRe       = regexp.MustCompile(`\ba las? (\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	bareHourAmPmRe = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
)

var weekdaysES = []struct {
	name string
	wd   time.Weekday
}{
	{"lunes", time.Monday},
	{"martes", time.Tuesday},
	{"miercoles", time.Wednesday},
	{"jueves", time.Thursday},
	{"viernes", time.Friday},
	{"sabado", time.Saturday},
	{"domingo", time.Sunday},
}

// extractSchedule pulls date and time expressions out of a normalized
// message. Either may be absent; nil means neither was found.
func extractSchedule(norm string, now time.Time) map[string]string {
	params := make(map[string]string, 2)
	if d, ok := extractDate(norm, now); ok {
		params[paramDate] = d
	}
	if t, ok := extractTime(norm); ok {
		params[paramTime] = t
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

func extractDate(norm string, now time.Time) (string, bool) {
	if m := isoDateRe.FindString(norm); m != "" {
		if d, err := time.ParseInLocation(dateLayout, m, now.Location()); err == nil {
			return d.Format(dateLayout), true
		}
	}
	if m := dmyDateRe.FindStringSubmatch(norm); m != nil {
		day, _ := strconv.Atoi(m[1])
		mon, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		d := time.Date(year, time.Month(mon), day, 0, 0, 0, 0, now.Location())
		// time.Date normalizes overflow (31/02 becomes March), reject that
		if d.Day() == day && int(d.Month()) == mon {
			return d.Format(dateLayout), true
		}
	}

	if containsPhrase(norm, "pasado mañana") {
		return now.AddDate(0, 0, 2).Format(dateLayout), true
	}
	if containsPhrase(norm, "hoy") {
		return now.Format(dateLayout), true
	}
	for _, d := range weekdaysES {
		if containsPhrase(norm, d.name) {
			ahead := (int(d.wd) - int(now.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return now.AddDate(0, 0, ahead).Format(dateLayout), true
		}
	}
	if mentionsTomorrow(norm) {
		return now.AddDate(0, 0, 1).Format(dateLayout), true
	}
	return "", false
}

// mentionsTomorrow distinguishes "mañana" the day from "por la mañana" the
// day part. The handled idioms are blanked out first, so "mañana por la
// mañana" still reads as tomorrow.
func mentionsTomorrow(norm string) bool {
	for _, idiom := range []string{"pasado mañana", "por la mañana", "en la mañana", "de la mañana"} {
		norm = strings.ReplaceAll(norm, idiom, " ")
	}
	return containsPhrase(norm, "mañana")
}

func extractTime(norm string) (string, bool) {
	if m := clockRe.FindStringSubmatch(norm); m != nil {
		if t, ok := clockFrom(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := atHourRe.FindStringSubmatch(norm); m != nil {
		if t, ok := clockFrom(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := bareHourAmPmRe.FindStringSubmatch(norm); m != nil {
		if t, ok := clockFrom(m[1], "", m[2]); ok {
			return t, true
		}
	}

	switch {
	case containsPhrase(norm, "por la mañana") || containsPhrase(norm, "en la mañana") || containsPhrase(norm, "de la mañana"):
		return "09:00", true
	case containsPhrase(norm, "tarde"):
		return "15:00", true
	case containsPhrase(norm, "noche"):
		return "19:00", true
	}
	return "", false
}

func clockFrom(hh, mm, meridiem string) (string, bool) {
	h, _ := strconv.Atoi(hh)
	min := 0
	if mm != "" {
		min, _ = strconv.Atoi(mm)
	}
	switch meridiem {
	case "pm":
		if h >= 1 && h <= 11 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	}
	if h < 0 || h > 23 || min < 0 || min > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, min), true
}

// combineDateTime joins the two extracted parts into one instant in loc.
func combineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
}
