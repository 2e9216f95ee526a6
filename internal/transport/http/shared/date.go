package shared

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate accepts RFC3339 or YYYY-MM-DD. An empty value is the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC3339 nor YYYY-MM-DD", value)
	}
	return parsed, nil
}

// ParseRange reads an inclusive [from, to] pair of query values and returns
// it as a half-open interval. A bare date for "to" covers that whole day.
func ParseRange(fromValue, toValue string) (from, to time.Time, err error) {
	if from, err = ParseDate(fromValue); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
	}
	if to, err = ParseDate(toValue); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
	}
	if len(toValue) == len(dateLayout) {
		to = to.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from must be before to")
	}
	return from, to, nil
}
