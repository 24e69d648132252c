package mfunc

import (
	"fmt"
	"sort"
	"strings"
)

// Segment is a half-open range [Start, End) of program points
type Segment struct {
	Start, End int
}

// Interval is a live interval: sorted, non-overlapping segments
type Interval []Segment

// NewInterval normalizes segments: empty ones are dropped, the rest are sorted
// and touching or overlapping segments are merged.
func NewInterval(segs ...Segment) Interval {
	var out Interval
	for _, s := range segs {
		if s.End > s.Start {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start == out[j].Start {
			return out[i].End < out[j].End
		}
		return out[i].Start < out[j].Start
	})

	merged := out[:0]
	for _, s := range out {
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Empty reports whether the interval covers no program point
func (iv Interval) Empty() bool {
	return len(iv) == 0
}

// Start returns the first covered point
func (iv Interval) Start() int {
	if iv.Empty() {
		return 0
	}
	return iv[0].Start
}

// End returns one past the last covered point
func (iv Interval) End() int {
	if iv.Empty() {
		return 0
	}
	return iv[len(iv)-1].End
}

// Overlaps reports whether both intervals cover a common point
func (iv Interval) Overlaps(other Interval) bool {
	i, j := 0, 0
	for i < len(iv) && j < len(other) {
		a, b := iv[i], other[j]
		if a.Start < b.End && b.Start < a.End {
			return true
		}
		if a.End <= b.End {
			i++
		} else {
			j++
		}
	}
	return false
}

func (iv Interval) String() string {
	parts := make([]string, len(iv))
	for i, s := range iv {
		parts[i] = fmt.Sprintf("[%d,%d)", s.Start, s.End)
	}
	return strings.Join(parts, " ")
}
