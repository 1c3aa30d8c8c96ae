package exporter

import (
	"math"
	"strconv"
	"time"
)

// TimestampLayout is how pickup timestamps are written: UTC with an
// explicit offset
const TimestampLayout = "2006-01-02 15:04:05+00:00"

// formatFloat writes the shortest representation that parses back to f.
// Missing values become an empty cell.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an integer value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatTimestamp writes t in UTC
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
