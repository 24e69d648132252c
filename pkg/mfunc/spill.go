package mfunc

import (
	"sort"

	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/reg"
)

// Spill retires v and replaces it with one fragment per program point where v
// is defined or read. Each fragment lives for a single point, around the
// store after the def or the reload before the use, and cannot be spilled
// again. Stack-resident values get a slot in the frame; rematerializable ones
// are recomputed at each use instead, so their def needs no fragment.
//
// An empty result means v was eliminated entirely.
func (f *Function) Spill(v reg.VReg) ([]reg.VReg, error) {
	vr, ok := f.vregs[v]
	if !ok || vr.Retired {
		return nil, errors.Wrap(ErrBadFunction, "spill of unknown register %v", v)
	}
	if vr.NoSpill {
		return nil, errors.New("%v is not spillable", v)
	}

	byPos := make(map[int][]Point)
	for _, p := range vr.Points {
		if p.Kind == Debug {
			continue
		}
		if vr.Remat && p.Kind == Def {
			continue
		}
		byPos[p.Pos] = append(byPos[p.Pos], p)
	}
	positions := make([]int, 0, len(byPos))
	for pos := range byPos {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	if !vr.Remat && len(positions) > 0 {
		f.frame.allocate(v, f.SpillSize(vr.Class))
	}

	vr.Retired = true
	vr.Live = nil

	out := make([]reg.VReg, 0, len(positions))
	for _, pos := range positions {
		nv := f.fresh.Fresh()
		f.vregs[nv] = &VirtReg{
			ID:      nv,
			Class:   vr.Class,
			Live:    Interval{{Start: pos, End: pos + 1}},
			Points:  byPos[pos],
			NoSpill: true,
			Parent:  v,
			Split:   true,
		}
		out = append(out, nv)
	}
	return out, nil
}

// Origin follows spill fragments back to the register of the input function
func (f *Function) Origin(v reg.VReg) reg.VReg {
	for {
		vr, ok := f.vregs[v]
		if !ok || !vr.Split {
			return v
		}
		v = vr.Parent
	}
}
