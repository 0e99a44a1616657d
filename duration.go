package jevent

import (
	"fmt"
	"strings"
	"time"
)

// CanonicalZeroDuration is the wire form emitted for a zero (or, on write,
// clamped-to-zero) duration; a zero duration emits the canonical "P0D".
const CanonicalZeroDuration = "P0D"

// ParseISO8601Duration parses an ISO 8601 duration string ("P1DT2H30M", "PT0S", ...)
// into a time.Duration. A leading "-" is honored (used by Alert.Offset folding,
// see convert/ical/alerts.go, even though the JEVENT wire form itself is always
// non-negative for alerts).
func ParseISO8601Duration(duration string) (time.Duration, error) {
	if duration == "" {
		return 0, fmt.Errorf("jevent: empty ISO 8601 duration")
	}

	negative := false
	if strings.HasPrefix(duration, "-") {
		negative = true
		duration = duration[1:]
	}

	if !strings.HasPrefix(duration, "P") {
		return 0, fmt.Errorf("jevent: ISO 8601 duration %q must start with P", duration)
	}
	duration = duration[1:]

	var result time.Duration
	datePart, timePart, hasTime := strings.Cut(duration, "T")
	if !hasTime {
		datePart = duration
		timePart = ""
	}

	if datePart != "" {
		remaining := datePart
		if idx := strings.Index(remaining, "Y"); idx >= 0 {
			n, err := parseDurationField(remaining[:idx])
			if err != nil {
				return 0, err
			}
			result += time.Duration(n * 365 * 24 * float64(time.Hour))
			remaining = remaining[idx+1:]
		}
		if idx := strings.Index(remaining, "M"); idx >= 0 {
			n, err := parseDurationField(remaining[:idx])
			if err != nil {
				return 0, err
			}
			result += time.Duration(n * 30 * 24 * float64(time.Hour))
			remaining = remaining[idx+1:]
		}
		if idx := strings.Index(remaining, "W"); idx >= 0 {
			n, err := parseDurationField(remaining[:idx])
			if err != nil {
				return 0, err
			}
			result += time.Duration(n * 7 * 24 * float64(time.Hour))
			remaining = remaining[idx+1:]
		}
		if idx := strings.Index(remaining, "D"); idx >= 0 {
			n, err := parseDurationField(remaining[:idx])
			if err != nil {
				return 0, err
			}
			result += time.Duration(n * 24 * float64(time.Hour))
		}
	}

	if timePart != "" {
		remaining := timePart
		if idx := strings.Index(remaining, "H"); idx >= 0 {
			n, err := parseDurationField(remaining[:idx])
			if err != nil {
				return 0, err
			}
			result += time.Duration(n * float64(time.Hour))
			remaining = remaining[idx+1:]
		}
		if idx := strings.Index(remaining, "M"); idx >= 0 {
			n, err := parseDurationField(remaining[:idx])
			if err != nil {
				return 0, err
			}
			result += time.Duration(n * float64(time.Minute))
			remaining = remaining[idx+1:]
		}
		if idx := strings.Index(remaining, "S"); idx >= 0 {
			n, err := parseDurationField(remaining[:idx])
			if err != nil {
				return 0, err
			}
			result += time.Duration(n * float64(time.Second))
		}
	}

	if negative {
		result = -result
	}
	return result, nil
}

func parseDurationField(s string) (float64, error) {
	var n float64
	if _, err := fmt.Sscanf(s, "%g", &n); err != nil {
		return 0, fmt.Errorf("jevent: invalid duration field %q: %w", s, err)
	}
	return n, nil
}

// FormatISO8601Duration renders a non-negative time.Duration as a canonical
// ISO 8601 duration string. Durations at or below zero fold to the canonical
// zero form; callers that need a signed offset (alerts) fold the sign into a
// separate field instead.
func FormatISO8601Duration(d time.Duration) string {
	if d <= 0 {
		return CanonicalZeroDuration
	}

	var b strings.Builder
	b.WriteString("P")

	days := int64(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}

	if d > 0 {
		b.WriteString("T")
		hours := int64(d / time.Hour)
		d -= time.Duration(hours) * time.Hour
		if hours > 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		minutes := int64(d / time.Minute)
		d -= time.Duration(minutes) * time.Minute
		if minutes > 0 {
			fmt.Fprintf(&b, "%dM", minutes)
		}
		seconds := d.Seconds()
		if seconds > 0 {
			fmt.Fprintf(&b, "%gS", seconds)
		}
	}

	out := b.String()
	if out == "P" {
		return CanonicalZeroDuration
	}
	return out
}
