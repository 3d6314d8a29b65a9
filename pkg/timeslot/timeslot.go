// Package timeslot provides value types for intra-day time intervals.
// All intervals are half-open [start, end) on a single calendar day and
// compared as minutes since midnight.
package timeslot

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidClock reports a malformed HH:MM value.
var ErrInvalidClock = errors.New("invalid HH:MM time")

// Clock is a time of day expressed as minutes since midnight.
type Clock int

// ParseClock parses a strict zero-padded 24-hour "HH:MM" string.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(hour*60 + minute), nil
}

// String renders the clock back to zero-padded HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Range is a half-open interval [Start, End) within one day.
type Range struct {
	Start Clock
	End   Clock
}

// NewRange builds a range from HH:MM strings, requiring start < end.
func NewRange(start, end string) (Range, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Range{}, err
	}
	if e <= s {
		return Range{}, fmt.Errorf("range end %s not after start %s", end, start)
	}
	return Range{Start: s, End: e}, nil
}

// Overlaps reports whether two half-open ranges share any instant.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Contains reports whether the other range lies fully inside r.
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Subtract removes every busy range from the free range and returns the
// remaining sub-ranges sorted by start. Zero-length remnants are dropped.
func Subtract(free Range, busy []Range) []Range {
	remaining := []Range{free}
	sorted := make([]Range, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for _, b := range sorted {
		var next []Range
		for _, r := range remaining {
			if !r.Overlaps(b) {
				next = append(next, r)
				continue
			}
			if b.Start > r.Start {
				next = append(next, Range{Start: r.Start, End: b.Start})
			}
			if b.End < r.End {
				next = append(next, Range{Start: b.End, End: r.End})
			}
		}
		remaining = next
	}

	return remaining
}
