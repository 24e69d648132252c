package regalloc

import (
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/raymyers/ralph-ra/pkg/reg"
)

// Strategy tells which path produced an assignment
type Strategy int

const (
	// Chaitin is the simplify/select/spill heuristic
	Chaitin Strategy = iota
	// Oracle is the reconciled abstract coloring
	Oracle
)

func (s Strategy) String() string {
	switch s {
	case Chaitin:
		return "chaitin"
	case Oracle:
		return "oracle"
	}
	return "unknown"
}

// Options configures one allocation run
type Options struct {
	// MaxRounds bounds the spill rounds, DefaultMaxRounds if zero
	MaxRounds int
	// Coloring is an optional abstract coloring to try first
	Coloring *AbstractColoring
	// Log receives diagnostics, nil disables them
	Log *tlog.Logger
}

// Result holds the result of register allocation
type Result struct {
	// Assignment maps each live virtual register to its physical register.
	// Registers that were spilled or that need no register are absent.
	Assignment map[reg.VReg]reg.PReg
	// Spilled lists every register handed to the spiller, over all rounds
	Spilled reg.VRegSet
	// Rounds is the number of simplify/select rounds run (0 for Oracle)
	Rounds   int
	Strategy Strategy
	// Fallback is why the abstract coloring was rejected, if one was given
	Fallback error
	// Graph is the interference graph the final assignment was made on
	Graph *InterferenceGraph
}

// Reg returns the register assigned to v
func (r *Result) Reg(v reg.VReg) (reg.PReg, bool) {
	p, ok := r.Assignment[v]
	return p, ok
}

// Allocator is the run context of one function's allocation
type Allocator struct {
	fn    Function
	live  LivenessOracle
	cat   RegisterCatalog
	spill SpillPort
	opts  Options
	log   *tlog.Logger

	cong *Congruence
}

// NewAllocator creates an allocator over the given collaborators
func NewAllocator(fn Function, live LivenessOracle, cat RegisterCatalog, spill SpillPort, opts Options) *Allocator {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	return &Allocator{
		fn:    fn,
		live:  live,
		cat:   cat,
		spill: spill,
		opts:  opts,
		log:   opts.Log,
		cong:  NewCongruence(cat),
	}
}

// Congruence returns the congruence classes of the run
func (a *Allocator) Congruence() *Congruence {
	return a.cong
}

// Allocate assigns registers to the function. When an abstract coloring is
// given and it reconciles, it is used as is. Otherwise rounds of
// simplify/select run, spilling between rounds, until one round needs no
// spill.
func (a *Allocator) Allocate() (*Result, error) {
	res := &Result{Spilled: reg.NewVRegSet()}

	if a.opts.Coloring != nil {
		g := BuildInterferenceGraph(a.fn, a.live, a.cat)
		assign, err := a.reconcile(g, NewCandidateResolver(a.live, a.cat), a.opts.Coloring)
		if err == nil {
			res.Assignment = assign
			res.Strategy = Oracle
			res.Graph = g
			a.log.V("regalloc").Printw("allocated", "func", a.fn.Name(), "strategy", res.Strategy)
			return res, nil
		}
		res.Fallback = err
		a.log.V("regalloc,oracle").Printw("oracle coloring rejected", "func", a.fn.Name(), "err", err)
	}

	for num := 1; ; num++ {
		if num > a.opts.MaxRounds {
			return nil, errors.Wrap(ErrNoProgress, "%s: %d rounds", a.fn.Name(), a.opts.MaxRounds)
		}

		r := a.newRound(num)
		r.simplify()
		r.selectRegs()

		if len(r.unallocatable) > 0 {
			return nil, errors.Wrap(ErrUnallocatable, "%s: no register for %s", a.fn.Name(), joinVRegs(r.unallocatable))
		}

		res.Rounds = num
		res.Assignment = r.assign
		res.Graph = r.graph
		a.log.V("regalloc").Printw("round", "func", a.fn.Name(), "round", num,
			"nodes", r.graph.Nodes.Len(), "edges", r.graph.EdgeCount(), "spills", len(r.spills))

		if len(r.spills) == 0 {
			res.Strategy = Chaitin
			return res, nil
		}

		for _, v := range r.spills {
			repl, err := a.spill.Spill(v)
			if err != nil {
				return nil, errors.Wrap(err, "%s: spill %v", a.fn.Name(), v)
			}
			res.Spilled.Add(v)
			a.log.V("spill").Printw("spilled", "vreg", v, "replacements", repl, "from", loc.Caller(0))
		}
	}
}

// AllocateFunction allocates registers for a function that provides every
// collaborator itself
func AllocateFunction(t Target, opts Options) (*Result, error) {
	return NewAllocator(t, t, t, t, opts).Allocate()
}

func joinVRegs(vs []reg.VReg) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
