package regalloc

import (
	"github.com/raymyers/ralph-ra/pkg/reg"
)

type nodeState uint8

const (
	uncolored nodeState = iota
	onStack
	colored
	spilled
)

// round is the state of one simplify/select pass. A new round is made after
// every batch of spills; nothing carries over except the congruence classes.
type round struct {
	a     *Allocator
	num   int
	graph *InterferenceGraph
	cands *CandidateResolver

	degree map[reg.VReg]int
	state  map[reg.VReg]nodeState
	stack  []reg.VReg

	assign        map[reg.VReg]reg.PReg
	spills        []reg.VReg
	unallocatable []reg.VReg
}

func (a *Allocator) newRound(num int) *round {
	g := BuildInterferenceGraph(a.fn, a.live, a.cat)
	r := &round{
		a:      a,
		num:    num,
		graph:  g,
		cands:  NewCandidateResolver(a.live, a.cat),
		degree: make(map[reg.VReg]int, len(g.Nodes)),
		state:  make(map[reg.VReg]nodeState, len(g.Nodes)),
		assign: make(map[reg.VReg]reg.PReg, len(g.Nodes)),
	}
	for v := range g.Nodes {
		r.degree[v] = g.Degree(v)
		r.state[v] = uncolored
	}
	return r
}

// simplify pushes every node, always picking the uncolored node of lowest
// current degree. Ties go to the lowest index.
func (r *round) simplify() {
	nodes := r.graph.SortedNodes()
	r.stack = make([]reg.VReg, 0, len(nodes))

	for range nodes {
		best, bestDeg := reg.VReg(0), -1
		for _, v := range nodes {
			if r.state[v] != uncolored {
				continue
			}
			if bestDeg < 0 || r.degree[v] < bestDeg {
				best, bestDeg = v, r.degree[v]
			}
		}

		r.stack = append(r.stack, best)
		r.state[best] = onStack
		for n := range r.graph.Edges[best] {
			if r.state[n] == uncolored {
				r.degree[n]--
			}
		}
	}

	r.a.log.V("simplify").Printw("simplified", "round", r.num, "stack", r.stack)
}

// selectRegs pops the stack and gives each node the first candidate not
// congruent to the register of a colored neighbor.
func (r *round) selectRegs() {
	for len(r.stack) > 0 {
		n := len(r.stack) - 1
		v := r.stack[n]
		r.stack = r.stack[:n]

		if p, ok := r.pick(v); ok {
			r.assign[v] = p
			r.state[v] = colored
			r.a.log.V("select").Printw("colored", "round", r.num, "vreg", v, "reg", r.a.cat.RegName(p))
			continue
		}

		if r.a.spill.Spillable(v) {
			r.state[v] = spilled
			r.spills = append(r.spills, v)
			r.a.log.V("select").Printw("no register", "round", r.num, "vreg", v, "action", "spill")
			continue
		}

		if p, ok := r.evict(v); ok {
			r.assign[v] = p
			r.state[v] = colored
			r.a.log.V("select").Printw("colored by eviction", "round", r.num, "vreg", v, "reg", r.a.cat.RegName(p))
			continue
		}

		r.state[v] = spilled
		r.unallocatable = append(r.unallocatable, v)
		r.a.log.V("select").Printw("no register", "round", r.num, "vreg", v, "action", "fail")
	}
}

// evict frees a candidate for the unspillable v by spilling the colored
// neighbors holding it. A candidate qualifies only if every such neighbor is
// spillable.
func (r *round) evict(v reg.VReg) (reg.PReg, bool) {
	neighbors := r.graph.Neighbors(v)

next:
	for _, p := range r.cands.CandidateSet(v) {
		var victims []reg.VReg
		for _, n := range neighbors {
			if r.state[n] != colored || !r.a.cong.Same(r.assign[n], p) {
				continue
			}
			if !r.a.spill.Spillable(n) {
				continue next
			}
			victims = append(victims, n)
		}

		for _, n := range victims {
			delete(r.assign, n)
			r.state[n] = spilled
			r.spills = append(r.spills, n)
			r.a.log.V("select").Printw("evicted", "round", r.num, "vreg", n, "for", v)
		}
		return p, true
	}
	return reg.NoReg, false
}

func (r *round) pick(v reg.VReg) (reg.PReg, bool) {
	blocked := reg.NewPRegSet()
	for n := range r.graph.Edges[v] {
		if r.state[n] == colored {
			blocked.Add(r.a.cong.Find(r.assign[n]))
		}
	}

	for _, p := range r.cands.CandidateSet(v) {
		if !blocked.Contains(r.a.cong.Find(p)) {
			return p, true
		}
	}
	return reg.NoReg, false
}
