package regalloc

import (
	"sort"

	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/reg"
)

// colorKey is a left node of the matching. The oracle colors each class
// graph on its own, so equal colors of different classes are unrelated.
type colorKey struct {
	class reg.ClassID
	color uint32
}

// reconcile turns an abstract coloring into registers. Colors are matched
// one to one with congruence classes that every vreg of the color can use;
// each bounded vreg then takes its first candidate inside the matched class.
// Unbounded vregs take their first candidate.
//
// On any error nothing is assigned.
func (a *Allocator) reconcile(g *InterferenceGraph, cr *CandidateResolver, ac *AbstractColoring) (map[reg.VReg]reg.PReg, error) {
	if ac.Len() != len(ac.Colors) {
		return nil, errors.Wrap(ErrOracleMismatch, "%d mapping entries for %d colors", ac.Len(), len(ac.Colors))
	}

	colorOf := make(map[reg.VReg]uint32)
	for i, v := range ac.Mapping {
		if !g.Bounded(v) {
			continue
		}
		c := ac.Colors[i]
		if prev, ok := colorOf[v]; ok && prev != c {
			return nil, errors.Wrap(ErrOracleMismatch, "%v has colors %d and %d", v, prev, c)
		}
		colorOf[v] = c
	}

	nodes := g.SortedNodes()
	keyOf := make(map[reg.VReg]colorKey)
	byKey := make(map[colorKey][]reg.VReg)
	for _, v := range nodes {
		if !g.Bounded(v) {
			continue
		}
		c, ok := colorOf[v]
		if !ok {
			return nil, errors.Wrap(ErrOracleMismatch, "%v has no color", v)
		}
		// Neighbors of an aliasing class get a different key, and the
		// matching keeps distinct keys in distinct congruence classes
		for _, n := range g.Neighbors(v) {
			if nc, ok := colorOf[n]; ok && n > v && nc == c && a.cat.ClassOf(n) == a.cat.ClassOf(v) {
				return nil, errors.Wrap(ErrOracleMismatch, "%v and %v interfere but share color %d", v, n, c)
			}
		}
		k := colorKey{class: a.cat.ClassOf(v), color: c}
		keyOf[v] = k
		byKey[k] = append(byKey[k], v)
	}

	keys := make([]colorKey, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].class != keys[j].class {
			return keys[i].class < keys[j].class
		}
		return keys[i].color < keys[j].color
	})

	adj := make([][]reg.PReg, len(keys))
	index := make(map[colorKey]int, len(keys))
	for i, k := range keys {
		adj[i] = a.allowedClasses(cr, byKey[k])
		index[k] = i
	}
	m := newMatcher(adj)
	if matched := m.run(); matched < len(keys) {
		return nil, errors.Wrap(ErrOracleMismatch, "matched %d of %d colors", matched, len(keys))
	}

	assign := make(map[reg.VReg]reg.PReg, len(nodes))
	for _, v := range nodes {
		cands := cr.CandidateSet(v)
		if !g.Bounded(v) {
			if len(cands) == 0 {
				return nil, errors.Wrap(ErrOracleMismatch, "%v has no candidate", v)
			}
			assign[v] = cands[0]
			continue
		}
		rep := m.matchL[index[keyOf[v]]]
		for _, p := range cands {
			if a.cong.Find(p) == rep {
				assign[v] = p
				break
			}
		}
	}

	a.log.V("oracle").Printw("reconciled", "colors", len(keys), "vregs", len(assign))
	return assign, nil
}

// allowedClasses intersects the candidate sets of vs projected onto
// congruence classes. The result is ordered by representative.
func (a *Allocator) allowedClasses(cr *CandidateResolver, vs []reg.VReg) []reg.PReg {
	var allowed reg.PRegSet
	for _, v := range vs {
		proj := reg.NewPRegSet()
		for _, p := range cr.CandidateSet(v) {
			proj.Add(a.cong.Find(p))
		}
		if allowed == nil {
			allowed = proj
		} else {
			allowed = allowed.Intersect(proj)
		}
	}
	return allowed.Sorted()
}

// matcher is a bipartite matching of colors (left, by index) to congruence
// class representatives (right) by augmenting paths.
type matcher struct {
	adj    [][]reg.PReg
	matchL []reg.PReg
	matchR map[reg.PReg]int
	seen   map[reg.PReg]int
	phase  int
}

func newMatcher(adj [][]reg.PReg) *matcher {
	return &matcher{
		adj:    adj,
		matchL: make([]reg.PReg, len(adj)),
		matchR: make(map[reg.PReg]int),
		seen:   make(map[reg.PReg]int),
	}
}

// run augments until a phase finds no path and returns the matching size.
// Right nodes are marked once per phase.
func (m *matcher) run() int {
	matched := 0
	for {
		m.phase++
		found := 0
		for c := range m.adj {
			if m.matchL[c] != reg.NoReg {
				continue
			}
			if m.augment(c) {
				found++
			}
		}
		if found == 0 {
			return matched
		}
		matched += found
	}
}

type matchFrame struct {
	left int
	next int
	via  reg.PReg
}

// augment searches an alternating path from the free left node c with an
// explicit stack and flips it when one reaches a free class.
func (m *matcher) augment(c int) bool {
	stack := []matchFrame{{left: c}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		adj := m.adj[top.left]
		if top.next >= len(adj) {
			stack = stack[:len(stack)-1]
			continue
		}
		r := adj[top.next]
		top.next++
		if m.seen[r] == m.phase {
			continue
		}
		m.seen[r] = m.phase
		top.via = r

		owner, taken := m.matchR[r]
		if !taken {
			for _, f := range stack {
				m.matchL[f.left] = f.via
				m.matchR[f.via] = f.left
			}
			return true
		}
		stack = append(stack, matchFrame{left: owner})
	}
	return false
}
