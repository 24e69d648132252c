package target

import (
	"fmt"

	"github.com/raymyers/ralph-ra/pkg/reg"
)

// ARM64 register layout:
// - X0-X30 integer, W0-W30 are their low halves (same storage unit)
// - D0-D31 floating point, S0-S31 are their low halves
// - X18 is the platform register, X29 the frame pointer, X30 the link register
// - callee-saved: X19-X28 (integer), D8-D15 (floating point)

const (
	gprUnitBase = 0
	fprUnitBase = 64
)

// ARM64 returns the builtin AArch64 catalog
func ARM64() *Catalog {
	c := NewCatalog("arm64")

	var x, w, d, s []string
	for i := 0; i <= 30; i++ {
		unit := []reg.Unit{reg.Unit(gprUnitBase + i)}
		reserved := i == 18 || i == 29 || i == 30
		calleeSaved := i >= 19 && i <= 28
		x = append(x, c.name("X", i))
		c.AddReg(c.name("X", i), unit, reserved, calleeSaved)
		w = append(w, c.name("W", i))
		c.AddReg(c.name("W", i), unit, reserved, false)
	}
	for i := 0; i <= 31; i++ {
		unit := []reg.Unit{reg.Unit(fprUnitBase + i)}
		calleeSaved := i >= 8 && i <= 15
		d = append(d, c.name("D", i))
		c.AddReg(c.name("D", i), unit, false, calleeSaved)
		s = append(s, c.name("S", i))
		c.AddReg(c.name("S", i), unit, false, false)
	}

	// The builtin definitions are known-good, errors are impossible here.
	_, _ = c.AddClass("gpr64", 8, x...)
	_, _ = c.AddClass("gpr32", 4, w...)
	_, _ = c.AddClass("fpr64", 8, d...)
	_, _ = c.AddClass("fpr32", 4, s...)
	return c
}

func (c *Catalog) name(prefix string, i int) string {
	return fmt.Sprintf("%s%d", prefix, i)
}

// CalleeSaved lists the callee-saved registers of the catalog, sorted by id
func (c *Catalog) CalleeSaved() []reg.PReg {
	var out []reg.PReg
	for _, r := range c.regs[1:] {
		if r.CalleeSaved {
			out = append(out, r.ID)
		}
	}
	sortRegs(out)
	return out
}

// IsCalleeSaved returns true if the register is callee-saved
func (c *Catalog) IsCalleeSaved(p reg.PReg) bool {
	r, ok := c.Reg(p)
	return ok && r.CalleeSaved
}
