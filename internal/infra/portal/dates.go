package portal

import (
	"strings"
	"time"
)

// DateRange is the server-side listing window.
type DateRange struct {
	Start time.Time // today 00:00
	End   time.Time // Dec 31 00:00 of the same year
}

// NewDateRange computes the window for now in loc.
func NewDateRange(now time.Time, loc *time.Location) DateRange {
	local := now.In(loc)
	return DateRange{
		Start: time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
		End:   time.Date(local.Year(), time.December, 31, 0, 0, 0, 0, loc),
	}
}

// FormatClassDate renders a class start the way instructors see it, e.g. "03-14-2026 | 09:30 am".
func FormatClassDate(t time.Time, loc *time.Location) string {
	return strings.ToLower(t.In(loc).Format("01-02-2006 | 03:04 PM"))
}
