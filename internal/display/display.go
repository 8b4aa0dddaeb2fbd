// Package display formats money and backend timestamps for people.
package display

import (
	"strconv"
	"strings"
	"time"
)

// FormatRupiah renders an amount the way Indonesian storefronts do:
// "Rp 15.000", "-Rp 2.500".
func FormatRupiah(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	if rest, neg := strings.CutPrefix(digits, "-"); neg {
		return "-Rp " + groupThousands(rest)
	}
	return "Rp " + groupThousands(digits)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// TimestampLayout is the display layout, e.g. "16 Nov 2025, 10:07".
const TimestampLayout = "02 Jan 2006, 15:04"

var inputLayouts = []string{
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02T15:04:05Z",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// FormatTimestamp reformats a backend timestamp in UTC. Empty input gives
// "", and anything unparseable is returned unchanged.
func FormatTimestamp(raw string) string {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a backend created_at/updated_at value.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
