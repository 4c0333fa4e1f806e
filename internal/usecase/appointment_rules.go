// File: internal/usecase/appointment_rules.go
package usecase

import "time"

// Booking window accepted by the clinic.
const (
	maxDaysAhead = 90
	openingHour  = 7
	closingHour  = 19
)

// validateAppointmentTime checks a requested instant against the clinic's
// booking rules. On violation it names the draft field to re-collect
// ("date" or "time") and the explanation to send; ok means bookable.
func validateAppointmentTime(now, at time.Time) (field, msg string, ok bool) {
	if !at.After(now) {
		day := at.Year()*1000 + at.YearDay()
		today := now.Year()*1000 + now.YearDay()
		if day < today {
			return paramDate, msgPastDate, false
		}
		return paramTime, msgPastTime, false
	}
	if at.After(now.AddDate(0, 0, maxDaysAhead)) {
		return paramDate, msgTooFar, false
	}
	if at.Weekday() == time.Sunday {
		return paramDate, msgSunday, false
	}
	h, m := at.Hour(), at.Minute()
	if h < openingHour || h > closingHour || (h == closingHour && m > 0) {
		return paramTime, msgOutOfHours, false
	}
	if m != 0 && m != 30 {
		return paramTime, msgBadMinutes, false
	}
	return "", "", true
}
