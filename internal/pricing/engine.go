package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"cruiseline/pkg/reservex"
)

type CabinType string

const (
	TypeInterior  CabinType = "interior"
	TypeOceanView CabinType = "oceanView"
	TypeBalcony   CabinType = "balcony"
	TypeSuite     CabinType = "suite"
)

func ParseCabinType(s string) (CabinType, error) {
	switch CabinType(s) {
	case TypeInterior, TypeOceanView, TypeBalcony, TypeSuite:
		return CabinType(s), nil
	default:
		return "", fmt.Errorf("unknown cabin type: %s", s)
	}
}

// AllTypes is the display order for cabin options.
func AllTypes() []CabinType {
	return []CabinType{TypeInterior, TypeOceanView, TypeBalcony, TypeSuite}
}

// Quote holds per-person prices per cabin type. Types missing from the quote
// have no resolvable price and must not be selectable.
type Quote map[CabinType]decimal.Decimal

// Price reports the per-person price for a type and whether one is known.
func (q Quote) Price(t CabinType) (decimal.Decimal, bool) {
	p, ok := q[t]
	return p, ok
}

// Fallback multipliers applied to an itinerary base price when no per-type
// pricing record exists. Base price is the interior rate.
var (
	factorOceanView = decimal.RequireFromString("1.3")
	factorBalcony   = decimal.RequireFromString("1.5")
	factorSuite     = decimal.RequireFromString("2.0")

	childFare = decimal.RequireFromString("0.5")
)

// FromRecord builds a quote from an exact (ship, route) pricing record.
func FromRecord(rec reservex.CabinPricing) Quote {
	q := Quote{}
	set := func(t CabinType, p decimal.Decimal) {
		if p.GreaterThan(decimal.Zero) {
			q[t] = p
		}
	}
	set(TypeInterior, rec.Interior)
	set(TypeOceanView, rec.OceanView)
	set(TypeBalcony, rec.Balcony)
	set(TypeSuite, rec.Suite)
	return q
}

// SynthesizeFromBase derives all four prices from an itinerary base price.
// Synthesized prices round to whole currency units. A base of zero or less
// yields an empty quote: pricing is unavailable, not free.
func SynthesizeFromBase(base decimal.Decimal) Quote {
	if base.LessThanOrEqual(decimal.Zero) {
		return Quote{}
	}
	return Quote{
		TypeInterior:  base,
		TypeOceanView: base.Mul(factorOceanView).Round(0),
		TypeBalcony:   base.Mul(factorBalcony).Round(0),
		TypeSuite:     base.Mul(factorSuite).Round(0),
	}
}

// Total prices the whole party: full fare per adult, half fare per child.
// It is recomputed from inputs every time; nothing caches or mutates it.
func Total(perPerson decimal.Decimal, adults, children int) decimal.Decimal {
	a := perPerson.Mul(decimal.NewFromInt(int64(adults)))
	c := perPerson.Mul(childFare).Mul(decimal.NewFromInt(int64(children)))
	return a.Add(c)
}

// Catalog is the slice of the reservations backend the engine reads.
type Catalog interface {
	GetCabinPricing(ctx context.Context, shipID, route string) (*reservex.CabinPricing, error)
}

type Engine struct {
	Catalog Catalog
}

// ResolveQuote resolves per-type prices for a (ship, route) pair.
//
// Resolution order:
//  1. Exact pricing record for the pair.
//  2. Itinerary base price fallback (synthesized multipliers) when the
//     backend has no record for the pair.
//
// A transport or server error is returned as-is; the caller marks pricing
// unknown rather than silently quoting from a possibly stale base price.
func (e Engine) ResolveQuote(ctx context.Context, shipID, route string, basePrice decimal.Decimal) (Quote, error) {
	rec, err := e.Catalog.GetCabinPricing(ctx, shipID, route)
	switch {
	case err == nil && rec != nil:
		if q := FromRecord(*rec); len(q) > 0 {
			return q, nil
		}
		return SynthesizeFromBase(basePrice), nil
	case errors.Is(err, reservex.ErrNotFound):
		return SynthesizeFromBase(basePrice), nil
	default:
		return nil, fmt.Errorf("cabin pricing lookup: %w", err)
	}
}
