package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseISODuration parses an ISO-8601 duration like "P1DT2H30M" into a
// time.Duration. Year and month designators are rejected: story lifetimes
// are short and calendar arithmetic would make the expiry depend on the
// posting date. Fractional values and negative durations are not accepted.
func parseISODuration(s string) (time.Duration, error) {
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}
	rest := s[1:]
	datePart := rest
	timePart := ""
	if i := strings.IndexByte(rest, 'T'); i >= 0 {
		datePart, timePart = rest[:i], rest[i+1:]
		if timePart == "" {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: dangling T", s)
		}
	}

	var total time.Duration
	parse := func(part string, units map[byte]time.Duration) error {
		for part != "" {
			i := 0
			for i < len(part) && part[i] >= '0' && part[i] <= '9' {
				i++
			}
			if i == 0 || i == len(part) {
				return fmt.Errorf("invalid ISO-8601 duration %q", s)
			}
			unit, ok := units[part[i]]
			if !ok {
				return fmt.Errorf("unsupported designator %q in duration %q", string(part[i]), s)
			}
			n, err := strconv.ParseInt(part[:i], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ISO-8601 duration %q: %w", s, err)
			}
			total += time.Duration(n) * unit
			part = part[i+1:]
		}
		return nil
	}

	if err := parse(datePart, map[byte]time.Duration{
		'D': 24 * time.Hour,
		'W': 7 * 24 * time.Hour,
	}); err != nil {
		return 0, err
	}
	if err := parse(timePart, map[byte]time.Duration{
		'H': time.Hour,
		'M': time.Minute,
		'S': time.Second,
	}); err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, fmt.Errorf("duration %q is zero", s)
	}
	return total, nil
}
