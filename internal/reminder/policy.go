package reminder

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultOffsets are the days-before-expiry at which reminders fire.
var DefaultOffsets = []int{15, 10, 1}

// Target pairs an offset with the expiry date an item must have to qualify
// for a reminder today.
type Target struct {
	Offset int
	Date   time.Time
}

// ValidateOffsets rejects offset configurations the sweep must not run with
func ValidateOffsets(offsets []int) error {
	if len(offsets) == 0 {
		return fmt.Errorf("no reminder offsets configured")
	}
	seen := make(map[int]bool, len(offsets))
	for _, offset := range offsets {
		if offset <= 0 {
			return fmt.Errorf("reminder offset must be positive, got %d", offset)
		}
		if seen[offset] {
			return fmt.Errorf("duplicate reminder offset %d", offset)
		}
		seen[offset] = true
	}
	return nil
}

// TargetDates maps each configured offset to the exact expiry date that
// qualifies for a reminder today. Pure and deterministic: an item matches a
// given offset on exactly one calendar day of its lifetime, which is what
// makes the sweep naturally idempotent across days.
func TargetDates(today time.Time, offsets []int) []Target {
	day := DateOnly(today)
	targets := make([]Target, 0, len(offsets))
	for _, offset := range offsets {
		targets = append(targets, Target{
			Offset: offset,
			Date:   day.AddDate(0, 0, offset),
		})
	}
	return targets
}

// DateOnly truncates a timestamp to a UTC calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OffsetsFromEnv reads REMINDER_OFFSETS (comma-separated days) or falls
// back to the defaults. Validation happens in NewEngine.
func OffsetsFromEnv() ([]int, error) {
	raw := os.Getenv("REMINDER_OFFSETS")
	if raw == "" {
		return DefaultOffsets, nil
	}
	parts := strings.Split(raw, ",")
	offsets := make([]int, 0, len(parts))
	for _, part := range parts {
		offset, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid REMINDER_OFFSETS entry %q: %w", part, err)
		}
		offsets = append(offsets, offset)
	}
	return offsets, nil
}
