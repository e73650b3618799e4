package services

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const isoDate = "2006-01-02"

// LocalISODate returns the calendar date of t in t's own zone, whatever the
// UTC instant underneath says.
func LocalISODate(t time.Time) string {
	_, offset := t.Zone()
	return t.UTC().Add(time.Duration(offset) * time.Second).Format(isoDate)
}

// Today is the viewer's current date
func Today(now time.Time, loc *time.Location) string {
	return LocalISODate(now.In(loc))
}

// PrettyDate renders an ISO date in long form. Unparsable input is returned as is.
func PrettyDate(iso string) string {
	t, err := time.Parse(isoDate, iso)
	if err != nil {
		return iso
	}
	return t.Format("January 2, 2006")
}

// FormatCount renders n with the locale's digit grouping
func FormatCount(tag language.Tag, n int64) string {
	return message.NewPrinter(tag).Sprintf("%d", n)
}

// FormatStatus renders a mission status for display
func FormatStatus(status string) string {
	return strings.ToUpper(status)
}
