// Package cli holds small parsers shared by command flags.
package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// "2h", "3d ago", "1w", "1mo ago"
var lookbackRegex = regexp.MustCompile(`^(\d+)\s*(mo|w|d|h|m)(\s+ago)?$`)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseSince resolves a --since value to the earliest instant it admits.
//
// Accepted forms: a lookback such as "2h", "7d" or "1mo ago", the words
// "today" and "yesterday", a weekday name meaning its most recent
// occurrence ("mon", "last friday"), a YYYY-MM-DD date in now's location,
// and RFC 3339. Every result lies at or before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty --since value")
	}
	input := strings.ToLower(raw)

	switch input {
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	}

	if name, ok := strings.CutPrefix(input, "last "); ok {
		input = strings.TrimSpace(name)
	}
	if wd, ok := weekdays[input]; ok {
		base := startOfDay(now)
		back := (int(base.Weekday()) - int(wd) + 7) % 7
		return base.AddDate(0, 0, -back), nil
	}

	if m := lookbackRegex.FindStringSubmatch(input); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return time.Time{}, fmt.Errorf("invalid --since value %q", raw)
		}
		return lookback(now, n, m[2]), nil
	}

	if t, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q (try 24h, 7d, yesterday or 2025-01-31)", raw)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func lookback(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "mo":
		return now.AddDate(0, -n, 0)
	case "w":
		return now.AddDate(0, 0, -7*n)
	case "d":
		return now.AddDate(0, 0, -n)
	case "h":
		return now.Add(-time.Duration(n) * time.Hour)
	default:
		return now.Add(-time.Duration(n) * time.Minute)
	}
}
