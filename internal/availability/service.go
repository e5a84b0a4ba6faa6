package availability

import (
	"context"
	"fmt"

	"cruiseline/internal/pricing"
	"cruiseline/pkg/reservex"
)

// Count is remaining capacity for one cabin type.
type Count struct {
	Available     int `json:"available"`
	TotalCapacity int `json:"totalCapacity"`
}

// Snapshot is per-type remaining capacity at one point in time. It is
// advisory only: nothing is locked or reserved, and a type shown available
// here can be exhausted by the time the booking-creation call lands.
type Snapshot map[pricing.CabinType]Count

// Selectable reports whether a cabin type should be offered at all.
func (s Snapshot) Selectable(t pricing.CabinType) bool {
	return s[t].Available > 0
}

// Catalog is the slice of the reservations backend this service reads.
type Catalog interface {
	GetCabinAvailability(ctx context.Context, shipID, route string) (*reservex.CabinAvailability, error)
}

type Service struct {
	Catalog Catalog
}

func (s Service) Snapshot(ctx context.Context, shipID, route string) (Snapshot, error) {
	rec, err := s.Catalog.GetCabinAvailability(ctx, shipID, route)
	if err != nil {
		return nil, fmt.Errorf("cabin availability lookup: %w", err)
	}

	return Snapshot{
		pricing.TypeInterior:  Count(rec.Interior),
		pricing.TypeOceanView: Count(rec.OceanView),
		pricing.TypeBalcony:   Count(rec.Balcony),
		pricing.TypeSuite:     Count(rec.Suite),
	}, nil
}
