package filters

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Sentinel errors returned by filter validation.
var (
	// ErrInvalidRange indicates a slice range with Min > Max or a
	// non-finite bound.
	ErrInvalidRange = errors.New("filters: invalid slice range")

	// ErrEmptySelect indicates a select filter with no values for a
	// coordinate.
	ErrEmptySelect = errors.New("filters: select filter has no values")
)

// Range is a contiguous inclusive interval [Min, Max] along a named
// coordinate.
type Range struct {
	Min float64
	Max float64
}

// Validate reports whether the range is well-formed: both bounds finite
// and Min <= Max.
func (r Range) Validate() error {
	if math.IsNaN(r.Min) || math.IsInf(r.Min, 0) ||
		math.IsNaN(r.Max) || math.IsInf(r.Max, 0) {
		return fmt.Errorf("non-finite bound [%v, %v]: %w", r.Min, r.Max, ErrInvalidRange)
	}
	if r.Min > r.Max {
		return fmt.Errorf("min %v > max %v: %w", r.Min, r.Max, ErrInvalidRange)
	}
	return nil
}

// Contains reports whether x lies in [Min, Max].
func (r Range) Contains(x float64) bool { return x >= r.Min && x <= r.Max }

// Select maps a coordinate name to the explicit values kept along it.
type Select map[string][]float64

// Slice maps a coordinate name to the inclusive range kept along it.
type Slice map[string]Range

// Validate checks every coordinate entry of a select filter.
func (s Select) Validate() error {
	for coord, vals := range s {
		if len(vals) == 0 {
			return fmt.Errorf("coordinate %q: %w", coord, ErrEmptySelect)
		}
	}
	return nil
}

// Validate checks every coordinate entry of a slice filter.
func (s Slice) Validate() error {
	for coord, r := range s {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("coordinate %q: %w", coord, err)
		}
	}
	return nil
}

// Clone returns an independent deep copy; a nil receiver yields nil.
func (s Select) Clone() Select {
	if s == nil {
		return nil
	}
	out := make(Select, len(s))
	for coord, vals := range s {
		cp := make([]float64, len(vals))
		copy(cp, vals)
		out[coord] = cp
	}
	return out
}

// Clone returns an independent copy; a nil receiver yields nil.
func (s Slice) Clone() Slice {
	if s == nil {
		return nil
	}
	out := make(Slice, len(s))
	for coord, r := range s {
		out[coord] = r
	}
	return out
}

// Label renders the selected values for one coordinate as a compact
// string used in output-directory names, e.g. multipoles {0,2,4} → "024".
// Values are rendered in ascending order with %g formatting and no
// separator; an absent coordinate yields the empty string.
func (s Select) Label(coord string) string {
	vals, ok := s[coord]
	if !ok {
		return ""
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	var b strings.Builder
	for _, v := range sorted {
		fmt.Fprintf(&b, "%g", v)
	}
	return b.String()
}

// Bounds returns the slice range for coord and whether it is present.
func (s Slice) Bounds(coord string) (Range, bool) {
	r, ok := s[coord]
	return r, ok
}
