// Package reg defines the identities shared by the register allocator and
// its collaborators: virtual registers, physical registers, register classes
// and register units.
package reg

import (
	"fmt"
	"sort"
)

// VReg is a virtual register, a dense index local to one function.
type VReg uint32

// PReg is a physical register id. Zero is reserved for "no register".
type PReg uint32

// NoReg is the zero PReg.
const NoReg PReg = 0

// ClassID identifies a register class.
type ClassID uint32

// Unit is an underlying storage unit. Two physical registers alias iff they
// share at least one unit.
type Unit uint32

func (v VReg) String() string {
	return fmt.Sprintf("v%d", uint32(v))
}

// Set is a set of registers (virtual or physical)
type Set[T ~uint32] map[T]struct{}

// VRegSet is a set of virtual registers
type VRegSet = Set[VReg]

// PRegSet is a set of physical registers
type PRegSet = Set[PReg]

// NewSet creates a set holding the given registers
func NewSet[T ~uint32](rs ...T) Set[T] {
	s := make(Set[T], len(rs))
	for _, r := range rs {
		s[r] = struct{}{}
	}
	return s
}

// NewVRegSet creates a set of virtual registers
func NewVRegSet(rs ...VReg) VRegSet {
	return NewSet(rs...)
}

// NewPRegSet creates a set of physical registers
func NewPRegSet(rs ...PReg) PRegSet {
	return NewSet(rs...)
}

// Add adds r to the set
func (s Set[T]) Add(r T) {
	s[r] = struct{}{}
}

// Contains reports whether r is in the set
func (s Set[T]) Contains(r T) bool {
	_, ok := s[r]
	return ok
}

// Len returns the number of elements
func (s Set[T]) Len() int {
	return len(s)
}

// Intersect returns s ∩ other
func (s Set[T]) Intersect(other Set[T]) Set[T] {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	out := make(Set[T])
	for r := range small {
		if big.Contains(r) {
			out[r] = struct{}{}
		}
	}
	return out
}

// Sorted returns the elements in ascending order (for deterministic output)
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
