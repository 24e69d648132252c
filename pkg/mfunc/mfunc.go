// Package mfunc is a small machine-function model: virtual registers with
// live intervals and use/def points, plus fixed physical-register liveness.
// It answers the liveness and class queries of the register allocator and
// implements its spill port.
package mfunc

import (
	"sort"

	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/reg"
	"github.com/raymyers/ralph-ra/pkg/target"
)

// ErrBadFunction is returned for malformed function descriptions.
var ErrBadFunction = errors.New("bad function")

// PointKind classifies an occurrence of a virtual register
type PointKind int

const (
	Def PointKind = iota
	Use
	Debug // debug metadata only, needs no register
)

func (k PointKind) String() string {
	switch k {
	case Def:
		return "def"
	case Use:
		return "use"
	case Debug:
		return "debug"
	default:
		return "unknown"
	}
}

// Point is one occurrence of a virtual register at a program point
type Point struct {
	Pos  int
	Kind PointKind
}

// VirtReg is a virtual register of the function
type VirtReg struct {
	ID      reg.VReg
	Class   reg.ClassID
	Live    Interval
	Points  []Point
	NoSpill bool // fixed by convention, or already a minimal spill fragment
	Remat   bool // value is cheap to recompute, spilling needs no stack slot

	Parent  reg.VReg // register this one was split from, valid when Split
	Split   bool     // created by spilling
	Retired bool     // spilled away, no longer live
}

// Function holds the virtual registers of one function body.
// The embedded catalog supplies the physical register queries.
type Function struct {
	*target.Catalog

	name  string
	vregs map[reg.VReg]*VirtReg
	fixed map[reg.Unit]Interval
	fresh numbering
	frame frameLayout
}

// New creates an empty function over a register catalog
func New(name string, cat *target.Catalog) *Function {
	return &Function{
		Catalog: cat,
		name:    name,
		vregs:   make(map[reg.VReg]*VirtReg),
		fixed:   make(map[reg.Unit]Interval),
		frame:   newFrameLayout(),
	}
}

// Name returns the function name
func (f *Function) Name() string {
	return f.name
}

// AddVirtReg adds a virtual register. Segments are normalized; when no points
// are given a def at the start and a use at the end of the interval are assumed.
func (f *Function) AddVirtReg(v reg.VReg, class reg.ClassID, segs []Segment, points []Point) (*VirtReg, error) {
	if _, dup := f.vregs[v]; dup {
		return nil, errors.Wrap(ErrBadFunction, "%v defined twice", v)
	}
	if _, ok := f.Class(class); !ok {
		return nil, errors.Wrap(ErrBadFunction, "%v: unknown class %d", v, class)
	}
	live := NewInterval(segs...)
	if points == nil && !live.Empty() {
		points = []Point{{Pos: live.Start(), Kind: Def}, {Pos: live.End() - 1, Kind: Use}}
	}
	vr := &VirtReg{ID: v, Class: class, Live: live, Points: points}
	f.vregs[v] = vr
	f.fresh.observe(v)
	return vr, nil
}

// AddFixed marks physical register p as live over segs (e.g. an argument
// register or a call clobber). All units of p become live.
func (f *Function) AddFixed(p reg.PReg, segs ...Segment) {
	for _, u := range f.Units(p) {
		merged := append(append([]Segment(nil), f.fixed[u]...), segs...)
		f.fixed[u] = NewInterval(merged...)
	}
}

// VirtReg returns the virtual register v
func (f *Function) VirtReg(v reg.VReg) (*VirtReg, bool) {
	vr, ok := f.vregs[v]
	return vr, ok
}

// VirtRegs returns every non-retired virtual register, ascending
func (f *Function) VirtRegs() []reg.VReg {
	out := make([]reg.VReg, 0, len(f.vregs))
	for v, vr := range f.vregs {
		if !vr.Retired {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClassOf returns the register class of v
func (f *Function) ClassOf(v reg.VReg) reg.ClassID {
	if vr, ok := f.vregs[v]; ok {
		return vr.Class
	}
	return 0
}

// HasInterval reports whether v has a non-empty live interval
func (f *Function) HasInterval(v reg.VReg) bool {
	vr, ok := f.vregs[v]
	return ok && !vr.Retired && !vr.Live.Empty()
}

// HasNonDebugUse reports whether v is defined or read outside debug metadata
func (f *Function) HasNonDebugUse(v reg.VReg) bool {
	vr, ok := f.vregs[v]
	if !ok {
		return false
	}
	for _, p := range vr.Points {
		if p.Kind != Debug {
			return true
		}
	}
	return false
}

// Overlaps reports whether the live intervals of a and b intersect
func (f *Function) Overlaps(a, b reg.VReg) bool {
	va, okA := f.vregs[a]
	vb, okB := f.vregs[b]
	if !okA || !okB {
		return false
	}
	return va.Live.Overlaps(vb.Live)
}

// OverlapsFixed reports whether v is live while storage unit u is fixed
func (f *Function) OverlapsFixed(v reg.VReg, u reg.Unit) bool {
	vr, ok := f.vregs[v]
	if !ok {
		return false
	}
	return vr.Live.Overlaps(f.fixed[u])
}

// Spillable reports whether v may be spilled
func (f *Function) Spillable(v reg.VReg) bool {
	vr, ok := f.vregs[v]
	return ok && !vr.NoSpill
}
