package booking

import (
	"fmt"
	"strings"
)

// Passenger is one traveler on the booking. IsChild is derived from roster
// position and guest counts, never set by the user.
type Passenger struct {
	FullName    string `json:"fullName"`
	Gender      string `json:"gender"`
	Citizenship string `json:"citizenship"`
	Age         int    `json:"age"`
	Email       string `json:"email,omitempty"`
	IsChild     bool   `json:"isChild"`
}

// SyncRoster reconciles the additional-passenger list with the guest counts.
// Target length is adults+children-1; the primary passenger is the first
// adult and lives outside this list.
//
// Growing appends blank records at the end; shrinking truncates from the end
// and keeps everything already entered at retained positions. Either way,
// IsChild is recomputed for every position: positions < adults-1 are adults,
// the rest are children.
func SyncRoster(existing []Passenger, adults, children int) []Passenger {
	target := adults + children - 1
	if target < 0 {
		target = 0
	}

	keep := len(existing)
	if keep > target {
		keep = target
	}

	out := make([]Passenger, 0, target)
	out = append(out, existing[:keep]...)
	for len(out) < target {
		out = append(out, Passenger{})
	}

	for i := range out {
		out[i].IsChild = i >= adults-1
	}
	return out
}

// ValidateRoster checks every passenger and returns a field-keyed error map.
// Keys are "passenger.<index>.<field>" with index 0 the primary passenger and
// additional passengers from 1. An empty map means the roster is valid.
func ValidateRoster(primary Passenger, additional []Passenger) map[string]string {
	errs := map[string]string{}

	validateCommon(errs, 0, primary)
	if strings.TrimSpace(primary.Email) == "" {
		errs[fieldKey(0, "email")] = "email is required for the primary passenger"
	} else if !strings.Contains(primary.Email, "@") {
		errs[fieldKey(0, "email")] = "email is not valid"
	}
	if primary.Age > 0 && primary.Age < 18 {
		errs[fieldKey(0, "age")] = "the primary passenger must be an adult"
	}

	for i, p := range additional {
		idx := i + 1
		validateCommon(errs, idx, p)
		switch {
		case p.IsChild && p.Age >= 18:
			errs[fieldKey(idx, "age")] = "a child must be younger than 18"
		case !p.IsChild && p.Age > 0 && p.Age < 18:
			errs[fieldKey(idx, "age")] = "an adult must be 18 or older"
		}
	}

	return errs
}

func validateCommon(errs map[string]string, idx int, p Passenger) {
	if strings.TrimSpace(p.FullName) == "" {
		errs[fieldKey(idx, "fullName")] = "full name is required"
	}
	if strings.TrimSpace(p.Gender) == "" {
		errs[fieldKey(idx, "gender")] = "gender is required"
	}
	if strings.TrimSpace(p.Citizenship) == "" {
		errs[fieldKey(idx, "citizenship")] = "citizenship is required"
	}
	if p.Age <= 0 {
		errs[fieldKey(idx, "age")] = "age is required"
	}
}

func fieldKey(idx int, field string) string {
	return fmt.Sprintf("passenger.%d.%s", idx, field)
}
