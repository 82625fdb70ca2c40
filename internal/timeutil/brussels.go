package timeutil

import (
	"time"
	_ "time/tzdata"
)

// ZoneName is the business time zone. Quote numbering years and display dates
// follow it.
const ZoneName = "Europe/Brussels"

// Brussels is the Europe/Brussels location
var Brussels *time.Location

func init() {
	var err error
	Brussels, err = time.LoadLocation(ZoneName)
	if err != nil {
		// Fallback: fixed CET without daylight saving
		Brussels = time.FixedZone("CET", 1*60*60)
	}
}

// Now returns the current time in Brussels
func Now() time.Time {
	return time.Now().In(Brussels)
}

// FormatDate formats a time as a Belgian date (02/01/2006)
func FormatDate(t time.Time) string {
	return t.In(Brussels).Format(DisplayDateLayout)
}

// EndOfDayAfter returns 23:59:59 local time, days after t
func EndOfDayAfter(t time.Time, days int) time.Time {
	local := t.In(Brussels).AddDate(0, 0, days)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 0, Brussels)
}

// Common layouts
const (
	DateLayout        = "2006-01-02"
	DisplayDateLayout = "02/01/2006"
)
