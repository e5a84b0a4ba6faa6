package cabin

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestResolve_MaintenanceOverrideIsSticky(t *testing.T) {
	occ := Occupancy{
		Manual:    StatusMaintenance,
		TripStart: date(2025, 6, 1),
		TripEnd:   date(2025, 6, 10),
	}
	// Dates that would otherwise resolve to every derived state.
	for _, today := range []time.Time{
		time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC),
	} {
		if got := Resolve(occ, today); got != StatusMaintenance {
			t.Fatalf("today=%s: expected Maintenance, got %s", today, got)
		}
	}
}

func TestResolve_DateWindow(t *testing.T) {
	occ := Occupancy{
		Manual:    StatusAvailable,
		TripStart: date(2025, 6, 1),
		TripEnd:   date(2025, 6, 10),
	}

	cases := []struct {
		today time.Time
		want  Status
	}{
		{time.Date(2025, 5, 31, 23, 0, 0, 0, time.UTC), StatusBooked},
		{time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), StatusOccupied},
		{time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC), StatusOccupied},
		{time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC), StatusOccupied},
		{time.Date(2025, 6, 11, 0, 0, 1, 0, time.UTC), StatusAvailable},
	}
	for _, c := range cases {
		if got := Resolve(occ, c.today); got != c.want {
			t.Fatalf("today=%s: expected %s, got %s", c.today, c.want, got)
		}
	}
}

func TestResolve_NoDatesFallsBackToManual(t *testing.T) {
	for _, manual := range []Status{StatusAvailable, StatusBooked, StatusOccupied} {
		occ := Occupancy{Manual: manual}
		if got := Resolve(occ, time.Now()); got != manual {
			t.Fatalf("expected fallback %s, got %s", manual, got)
		}
	}

	// One date alone is not a window.
	occ := Occupancy{Manual: StatusBooked, TripStart: date(2025, 6, 1)}
	if got := Resolve(occ, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)); got != StatusBooked {
		t.Fatalf("expected Booked, got %s", got)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	occ := Occupancy{
		Manual:    StatusAvailable,
		TripStart: date(2025, 6, 1),
		TripEnd:   date(2025, 6, 10),
	}
	today := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)

	first := Resolve(occ, today)
	for i := 0; i < 10; i++ {
		if got := Resolve(occ, today); got != first {
			t.Fatalf("call %d: expected %s, got %s", i, first, got)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("Occupied"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("Cleaning"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
