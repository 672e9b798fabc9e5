package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatDistance formats meters as "850 m" or "2.3 km".
func FormatDistance(meters float64) string {
	if math.IsNaN(meters) || meters < 0 {
		return "—"
	}
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return humanize.SIWithDigits(meters, 1, "m")
}

// FormatCoord formats a coordinate as "37.7749°N 122.4194°W".
func FormatCoord(lat, lon float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns = "S"
	}
	if lon < 0 {
		ew = "W"
	}
	return formatDegrees(math.Abs(lat)) + "°" + ns + " " + formatDegrees(math.Abs(lon)) + "°" + ew
}

func formatDegrees(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatSearchedAt formats a history timestamp with humanized relative display.
// "just now", "5 minutes ago", "Yesterday", "Jan 15", "Jan 15 '24"
func FormatSearchedAt(t, now time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	days := int(today.Sub(day).Hours() / 24)

	switch {
	case now.Sub(t) < time.Minute:
		return "just now"
	case days == 0:
		return humanize.RelTime(t, now, "ago", "from now")
	case days == 1:
		return "Yesterday"
	case t.Year() == now.Year():
		return t.Format("Jan 02")
	default:
		return t.Format("Jan 02 '06")
	}
}

// FormatCount formats n with a singular or plural noun: "1 article", "1,204 articles".
func FormatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
