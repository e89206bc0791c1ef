package diagnose

import "time"

// displayLayout renders as YYYY-MM-DD HH:MM:SS ZONE.
const displayLayout = "2006-01-02 15:04:05 MST"

// minInstant sorts before every real timestamp. It is never displayed.
var minInstant = time.Time{}.UTC()

// Normalize maps a timestamp onto a comparable UTC instant.
//
// Absent timestamps become the minimum instant, naive ones are read as UTC
// without shifting the clock value, and zoned ones are converted to UTC.
func Normalize(ts *Timestamp) time.Time {
	if ts == nil {
		return minInstant
	}
	if ts.Naive {
		t := ts.Time
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return ts.Time.UTC()
}

// displayTime picks last-seen, then first-seen, and formats it for humans.
func displayTime(e RawEvent) string {
	switch {
	case e.LastSeen != nil:
		return Normalize(e.LastSeen).Format(displayLayout)
	case e.FirstSeen != nil:
		return Normalize(e.FirstSeen).Format(displayLayout)
	default:
		return "N/A"
	}
}
