package types

import "fmt"

// Shift is a fixed daily staffing window. The two shifts partition the day:
// the day shift runs 06:00-22:00, the night shift 22:00-06:00 of the next day.
type Shift string

const (
	ShiftDay   Shift = "DAY"
	ShiftNight Shift = "NIGHT"
)

// ParseShift validates a shift value at the boundary so that invalid strings
// are rejected instead of falling through downstream branches.
func ParseShift(s string) (Shift, error) {
	switch Shift(s) {
	case ShiftDay, ShiftNight:
		return Shift(s), nil
	}
	return "", fmt.Errorf("invalid shift %q", s)
}

// String returns the string representation
func (s Shift) String() string {
	return string(s)
}
