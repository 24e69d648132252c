package regalloc

import (
	"github.com/raymyers/ralph-ra/pkg/reg"
)

// CandidateResolver computes the registers a virtual register may take
// before any neighbor is considered: members of its class, in allocation
// order, that are not reserved and do not collide with fixed liveness.
//
// Results are cached. A resolver must not outlive the round it was made for
// since spilling changes the function.
type CandidateResolver struct {
	live  LivenessOracle
	cat   RegisterCatalog
	cache map[reg.VReg][]reg.PReg
}

// NewCandidateResolver creates an empty resolver
func NewCandidateResolver(live LivenessOracle, cat RegisterCatalog) *CandidateResolver {
	return &CandidateResolver{
		live:  live,
		cat:   cat,
		cache: make(map[reg.VReg][]reg.PReg),
	}
}

// CandidateSet returns the candidates of v. The slice is shared with the
// cache and must not be modified.
func (cr *CandidateResolver) CandidateSet(v reg.VReg) []reg.PReg {
	if cands, ok := cr.cache[v]; ok {
		return cands
	}

	class := cr.cat.ClassOf(v)
	cands := []reg.PReg{}
	for _, p := range cr.cat.RawAllocationOrder(class) {
		if cr.cat.IsReserved(p) || !cr.cat.InClass(class, p) {
			continue
		}
		if cr.fixedConflict(v, p) {
			continue
		}
		cands = append(cands, p)
	}
	cr.cache[v] = cands
	return cands
}

func (cr *CandidateResolver) fixedConflict(v reg.VReg, p reg.PReg) bool {
	for _, u := range cr.cat.Units(p) {
		if cr.live.OverlapsFixed(v, u) {
			return true
		}
	}
	return false
}
