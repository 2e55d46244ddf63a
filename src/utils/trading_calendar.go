package utils

import (
	"log"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers trading-day questions for option expirations.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// GetCalendar loads the calendar for a MIC code (ISO 10383), falling back to
// NYSE and then to a plain Mon-Fri calendar.
func GetCalendar(mic string) *TradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		log.Printf("WARNING: Failed to load calendar for MIC '%s' and fallback 'xnys'. Using Mon-Fri fallback.", mic)
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// IsTradingDay reports whether the calendar date of d is a session day.
// d is interpreted as a civil date, not an instant.
func (tc *TradingCalendar) IsTradingDay(d time.Time) bool {
	loc := tc.Timezone
	if loc == nil {
		loc = time.UTC
	}
	date := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc)

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}
