// Package regalloc assigns physical registers to the virtual registers of one
// function using an interference graph.
//
// Two strategies are available. When an abstract coloring from an external
// oracle is supplied, the colors are reconciled against the hardware by a
// bipartite matching of colors to congruence classes. Otherwise, or when the
// matching fails, the classic simplify/select/spill heuristic runs in rounds
// until a round finishes without spilling.
package regalloc

import (
	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/reg"
)

var (
	// ErrUnallocatable means a register that may not be spilled has no
	// register left. Allocation of the function cannot complete.
	ErrUnallocatable = errors.New("register allocation failed")

	// ErrNoProgress means spilling kept producing new registers past the
	// round limit.
	ErrNoProgress = errors.New("spilling did not converge")

	// ErrOracleMismatch is recorded in Result.Fallback when the abstract
	// coloring cannot be reconciled with the register file.
	ErrOracleMismatch = errors.New("oracle coloring rejected")
)

// DefaultMaxRounds bounds the simplify/select/spill rounds of one function.
const DefaultMaxRounds = 64

// LivenessOracle answers lifetime questions. It is read-only for the allocator.
type LivenessOracle interface {
	HasInterval(v reg.VReg) bool
	Overlaps(a, b reg.VReg) bool
	OverlapsFixed(v reg.VReg, u reg.Unit) bool
}

// RegisterCatalog describes the register file and the class of each value.
type RegisterCatalog interface {
	ClassOf(v reg.VReg) reg.ClassID
	IsReserved(p reg.PReg) bool
	RawAllocationOrder(c reg.ClassID) []reg.PReg
	SharesUnit(a, b reg.PReg) bool
	Units(p reg.PReg) []reg.Unit
	PhysRegs() []reg.PReg
	InClass(c reg.ClassID, p reg.PReg) bool
	RegName(p reg.PReg) string
}

// SpillPort turns an unallocatable value into stack-resident code. It returns
// the replacement virtual registers; an empty result means the value was
// eliminated. Changes must be visible to the next Function/LivenessOracle query.
type SpillPort interface {
	Spillable(v reg.VReg) bool
	Spill(v reg.VReg) ([]reg.VReg, error)
}

// Function enumerates the values of the function being allocated.
type Function interface {
	Name() string
	VirtRegs() []reg.VReg
	HasNonDebugUse(v reg.VReg) bool
}

// Target bundles every collaborator, as implemented by mfunc.Function.
type Target interface {
	Function
	LivenessOracle
	RegisterCatalog
	SpillPort
}

// AbstractColoring is an externally computed coloring: Colors[i] is the color
// of virtual register Mapping[i]. Colors are opaque labels.
type AbstractColoring struct {
	Mapping []reg.VReg
	Colors  []uint32
}

// Len returns the number of entries
func (ac *AbstractColoring) Len() int {
	if ac == nil {
		return 0
	}
	return len(ac.Mapping)
}
