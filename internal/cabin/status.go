package cabin

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusAvailable   Status = "Available"
	StatusBooked      Status = "Booked"
	StatusOccupied    Status = "Occupied"
	StatusMaintenance Status = "Maintenance"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusAvailable, StatusBooked, StatusOccupied, StatusMaintenance:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown cabin status: %s", s)
	}
}

// Occupancy is the raw state a cabin's display status derives from. Manual is
// the staff-set status; TripStart/TripEnd describe the current booking window
// and are nil when there is none. Keeping the two cases in one tagged value
// stops callers from conflating an override with a date-derived status.
type Occupancy struct {
	Manual    Status
	TripStart *time.Time
	TripEnd   *time.Time
}

// Resolve derives the display status for a cabin. It is the only place status
// is computed; both the traveler-facing selector and staff inventory views go
// through it. Pure: same inputs, same output, no hidden state.
//
// Rules, in order:
//  1. A Maintenance override is sticky and wins over any date logic.
//  2. With both trip dates present, today is compared against the window
//     normalized to whole days: before it -> Booked, inside it -> Occupied,
//     past it -> Available.
//  3. Without trip dates the manual status is the display value verbatim.
func Resolve(o Occupancy, today time.Time) Status {
	if o.Manual == StatusMaintenance {
		return StatusMaintenance
	}

	if o.TripStart != nil && o.TripEnd != nil {
		day := startOfDay(today)
		start := startOfDay(*o.TripStart)
		end := endOfDay(*o.TripEnd)

		switch {
		case day.Before(start):
			return StatusBooked
		case day.After(end):
			return StatusAvailable
		default:
			return StatusOccupied
		}
	}

	return o.Manual
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
