package pricing

import (
	"fmt"
	"math"
	"sort"
)

// Tier is a quantity range with its own unit price. A nil MaxQuantity means
// the range has no upper bound.
type Tier struct {
	MinQuantity int           `bson:"minQuantity" json:"minQuantity"`
	MaxQuantity *int          `bson:"maxQuantity,omitempty" json:"maxQuantity,omitempty"`
	Price       CurrencyValue `bson:"price" json:"price"`
}

func (t Tier) upper() int {
	if t.MaxQuantity == nil {
		return math.MaxInt
	}
	return *t.MaxQuantity
}

func (t Tier) String() string {
	if t.MaxQuantity == nil {
		return fmt.Sprintf("[%d+]", t.MinQuantity)
	}
	return fmt.Sprintf("[%d-%d]", t.MinQuantity, *t.MaxQuantity)
}

// Covers reports whether qty falls inside the closed range of t.
func (t Tier) Covers(qty int) bool {
	return qty >= t.MinQuantity && qty <= t.upper()
}

// ValidationError is returned for tier configurations that cannot be stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Overlaps reports whether the closed intervals of a and b intersect.
func Overlaps(a, b Tier) bool {
	return a.MinQuantity <= b.upper() && b.MinQuantity <= a.upper()
}

// HasOverlap reports whether any two tiers intersect. Zero or one tier never
// overlaps.
func HasOverlap(tiers []Tier) bool {
	_, _, ok := firstOverlap(tiers)
	return ok
}

func firstOverlap(tiers []Tier) (int, int, bool) {
	if len(tiers) < 2 {
		return 0, 0, false
	}
	for i := 0; i < len(tiers); i++ {
		for j := i + 1; j < len(tiers); j++ {
			if Overlaps(tiers[i], tiers[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// ValidateTiers checks the bounds of every tier and, when more than one tier
// is configured, that no two ranges overlap.
func ValidateTiers(tiers []Tier) error {
	for i, t := range tiers {
		if t.MinQuantity < 1 {
			return &ValidationError{
				Field:   fmt.Sprintf("quantityPricing.ranges[%d].minQuantity", i),
				Message: "must be at least 1",
			}
		}
		if t.MaxQuantity != nil && *t.MaxQuantity < t.MinQuantity {
			return &ValidationError{
				Field:   fmt.Sprintf("quantityPricing.ranges[%d].maxQuantity", i),
				Message: fmt.Sprintf("must not be below minQuantity %d", t.MinQuantity),
			}
		}
	}

	if i, j, ok := firstOverlap(tiers); ok {
		return &ValidationError{
			Field:   "quantityPricing.ranges",
			Message: fmt.Sprintf("quantity ranges overlap: %s and %s", tiers[i], tiers[j]),
		}
	}
	return nil
}

// SortTiers orders tiers by ascending MinQuantity in place.
func SortTiers(tiers []Tier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinQuantity < tiers[j].MinQuantity
	})
}

// UnitPrice returns the price of the tier covering qty, or fallback when no
// tier matches.
func UnitPrice(tiers []Tier, qty int, fallback CurrencyValue) CurrencyValue {
	for _, t := range tiers {
		if t.Covers(qty) {
			return t.Price
		}
	}
	return fallback
}
