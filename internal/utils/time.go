package utils

import (
	"fmt"
	"time"
)

// MonthRange parses "YYYY-MM" into the half-open interval [first day, first day of next month).
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("month must look like 2024-09: %w", err)
	}
	return start, start.AddDate(0, 1, 0), nil
}
