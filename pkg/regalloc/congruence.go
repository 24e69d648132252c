package regalloc

import (
	"sort"

	"github.com/raymyers/ralph-ra/pkg/reg"
)

// Congruence partitions the physical registers into classes of registers
// connected by shared storage units. Two registers in one class can never
// hold two live values at the same time.
//
// The representative of a class is its lowest register id.
type Congruence struct {
	parent  map[reg.PReg]reg.PReg
	members map[reg.PReg][]reg.PReg
	reps    []reg.PReg
}

// RegisterFile is the part of a catalog the classes are built from
type RegisterFile interface {
	PhysRegs() []reg.PReg
	SharesUnit(a, b reg.PReg) bool
}

// NewCongruence builds the classes for every register of the file,
// reserved ones included
func NewCongruence(rf RegisterFile) *Congruence {
	regs := rf.PhysRegs()
	c := &Congruence{
		parent:  make(map[reg.PReg]reg.PReg, len(regs)),
		members: make(map[reg.PReg][]reg.PReg),
	}
	for _, p := range regs {
		c.parent[p] = p
	}

	for i := range regs {
		for j := i + 1; j < len(regs); j++ {
			if rf.SharesUnit(regs[i], regs[j]) {
				c.union(regs[i], regs[j])
			}
		}
	}

	for _, p := range regs {
		rep := c.Find(p)
		c.members[rep] = append(c.members[rep], p)
	}
	for rep, ms := range c.members {
		sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
		c.reps = append(c.reps, rep)
	}
	sort.Slice(c.reps, func(i, j int) bool { return c.reps[i] < c.reps[j] })
	return c
}

// Find returns the representative of p's class. Registers unknown to the
// catalog are their own class.
func (c *Congruence) Find(p reg.PReg) reg.PReg {
	root := p
	for {
		up, ok := c.parent[root]
		if !ok || up == root {
			break
		}
		root = up
	}
	// Path compression
	for p != root {
		up := c.parent[p]
		c.parent[p] = root
		p = up
	}
	return root
}

func (c *Congruence) union(a, b reg.PReg) {
	ra, rb := c.Find(a), c.Find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	c.parent[rb] = ra
}

// Same reports whether a and b are in one class
func (c *Congruence) Same(a, b reg.PReg) bool {
	return c.Find(a) == c.Find(b)
}

// Members returns the registers of the class represented by rep, ascending
func (c *Congruence) Members(rep reg.PReg) []reg.PReg {
	return c.members[c.Find(rep)]
}

// Classes returns every class ordered by representative, members ascending
func (c *Congruence) Classes() [][]reg.PReg {
	out := make([][]reg.PReg, len(c.reps))
	for i, rep := range c.reps {
		out[i] = c.members[rep]
	}
	return out
}

// Len returns the number of classes
func (c *Congruence) Len() int {
	return len(c.reps)
}
