package server

import (
	"errors"
	"strings"
	"time"
)

const (
	dateOnlyLayout      = "2006-01-02"
	localDateTimeLayout = "2006-01-02T15:04:05"
)

// parseOptionalTime accepts RFC3339, a zone-less date-time (read as UTC) or
// a plain date. Plain dates snap to the start of the day, or to its last
// instant when endOfDay is set, so ranges stay inclusive.
func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		parsed = parsed.UTC()
		return &parsed, nil
	}
	if parsed, err := time.Parse(localDateTimeLayout, trimmed); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		if endOfDay {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		} else {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		}
		return &parsed, nil
	}
	return nil, errors.New("invalid_time")
}

func parseRequiredTime(value string, endOfDay bool) (time.Time, error) {
	parsed, err := parseOptionalTime(value, endOfDay)
	if err != nil {
		return time.Time{}, err
	}
	if parsed == nil {
		return time.Time{}, errors.New("missing_time")
	}
	return *parsed, nil
}
