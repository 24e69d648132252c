package regalloc

import (
	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/reg"
)

// Verify checks an assignment against the function it was made for: every
// register belongs to the class of its value and is not reserved, and no two
// values live at the same time hold aliasing registers, whatever their
// classes.
func Verify(live LivenessOracle, cat RegisterCatalog, res *Result) error {
	if res == nil || res.Assignment == nil {
		return errors.New("nothing to verify")
	}
	cong := NewCongruence(cat)

	vregs := make([]reg.VReg, 0, len(res.Assignment))
	for v := range res.Assignment {
		vregs = append(vregs, v)
	}
	vregs = reg.NewVRegSet(vregs...).Sorted()

	for i, v := range vregs {
		p := res.Assignment[v]
		if !cat.InClass(cat.ClassOf(v), p) {
			return errors.New("%v: %s is outside its class", v, cat.RegName(p))
		}
		if cat.IsReserved(p) {
			return errors.New("%v: %s is reserved", v, cat.RegName(p))
		}
		for _, n := range vregs[i+1:] {
			q := res.Assignment[n]
			if cong.Same(p, q) && live.Overlaps(v, n) {
				return errors.New("%v (%s) and %v (%s) are live together", v, cat.RegName(p), n, cat.RegName(q))
			}
		}
	}
	return nil
}
