package regalloc

import (
	"github.com/raymyers/ralph-ra/pkg/reg"
)

// InterferenceGraph represents the register interference graph.
// Two virtual registers interfere if their classes alias and their live
// intervals overlap.
type InterferenceGraph struct {
	// Nodes are the live virtual registers
	Nodes reg.VRegSet
	// Edges maps each register to its interfering neighbors
	Edges map[reg.VReg]reg.VRegSet
}

// NewInterferenceGraph creates an empty interference graph
func NewInterferenceGraph() *InterferenceGraph {
	return &InterferenceGraph{
		Nodes: reg.NewVRegSet(),
		Edges: make(map[reg.VReg]reg.VRegSet),
	}
}

// AddNode adds a register to the graph
func (g *InterferenceGraph) AddNode(v reg.VReg) {
	g.Nodes.Add(v)
	if g.Edges[v] == nil {
		g.Edges[v] = reg.NewVRegSet()
	}
}

// AddEdge adds an interference edge between two registers
func (g *InterferenceGraph) AddEdge(a, b reg.VReg) {
	if a == b {
		return // No self-edges
	}
	g.AddNode(a)
	g.AddNode(b)
	g.Edges[a].Add(b)
	g.Edges[b].Add(a)
}

// HasEdge returns true if there is an interference edge
func (g *InterferenceGraph) HasEdge(a, b reg.VReg) bool {
	if edges, ok := g.Edges[a]; ok {
		return edges.Contains(b)
	}
	return false
}

// Degree returns the number of neighbors for a register
func (g *InterferenceGraph) Degree(v reg.VReg) int {
	return len(g.Edges[v])
}

// Bounded reports whether v has at least one interference edge
func (g *InterferenceGraph) Bounded(v reg.VReg) bool {
	return g.Degree(v) > 0
}

// Neighbors returns the interfering neighbors of a register, ascending
func (g *InterferenceGraph) Neighbors(v reg.VReg) []reg.VReg {
	if edges, ok := g.Edges[v]; ok {
		return edges.Sorted()
	}
	return nil
}

// SortedNodes returns the nodes in ascending order
func (g *InterferenceGraph) SortedNodes() []reg.VReg {
	return g.Nodes.Sorted()
}

// EdgeCount returns the number of undirected edges
func (g *InterferenceGraph) EdgeCount() int {
	n := 0
	for _, edges := range g.Edges {
		n += len(edges)
	}
	return n / 2
}

// liveSet returns the registers that need a register: a non-empty live
// interval and at least one def or use outside debug metadata.
func liveSet(fn Function, live LivenessOracle) []reg.VReg {
	var out []reg.VReg
	for _, v := range fn.VirtRegs() {
		if live.HasInterval(v) && fn.HasNonDebugUse(v) {
			out = append(out, v)
		}
	}
	return out
}

// BuildInterferenceGraph constructs the interference graph from liveness
// info. Two live registers interfere when their lifetimes overlap and their
// classes alias: the same class, or classes with members sharing a storage
// unit, such as a 64-bit register and its 32-bit half.
func BuildInterferenceGraph(fn Function, live LivenessOracle, cat RegisterCatalog) *InterferenceGraph {
	g := NewInterferenceGraph()
	aliases := newClassAliases(cat)

	vregs := liveSet(fn, live)
	classes := make([]reg.ClassID, len(vregs))
	for i, v := range vregs {
		g.AddNode(v)
		classes[i] = cat.ClassOf(v)
	}

	for i := range vregs {
		for j := i + 1; j < len(vregs); j++ {
			if !aliases.alias(classes[i], classes[j]) {
				continue
			}
			if live.Overlaps(vregs[i], vregs[j]) {
				g.AddEdge(vregs[i], vregs[j])
			}
		}
	}
	return g
}

// classAliases memoizes which pairs of register classes share storage
type classAliases struct {
	cat  RegisterCatalog
	memo map[[2]reg.ClassID]bool
}

func newClassAliases(cat RegisterCatalog) *classAliases {
	return &classAliases{cat: cat, memo: make(map[[2]reg.ClassID]bool)}
}

func (ca *classAliases) alias(a, b reg.ClassID) bool {
	if a == b {
		return true
	}
	if b < a {
		a, b = b, a
	}
	key := [2]reg.ClassID{a, b}
	if shared, ok := ca.memo[key]; ok {
		return shared
	}

	shared := false
scan:
	for _, p := range ca.cat.RawAllocationOrder(a) {
		for _, q := range ca.cat.RawAllocationOrder(b) {
			if p == q || ca.cat.SharesUnit(p, q) {
				shared = true
				break scan
			}
		}
	}
	ca.memo[key] = shared
	return shared
}
