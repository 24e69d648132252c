package target

import (
	"errors"
	"strings"
	"testing"

	"github.com/raymyers/ralph-ra/pkg/reg"
)

func mustLookup(t *testing.T, c *Catalog, name string) reg.PReg {
	t.Helper()
	p, ok := c.Lookup(name)
	if !ok {
		t.Fatalf("register %s not found", name)
	}
	return p
}

func TestARM64Aliasing(t *testing.T) {
	c := ARM64()

	x0 := mustLookup(t, c, "X0")
	w0 := mustLookup(t, c, "W0")
	x1 := mustLookup(t, c, "X1")
	d0 := mustLookup(t, c, "D0")
	s0 := mustLookup(t, c, "S0")

	if !c.SharesUnit(x0, w0) {
		t.Error("X0 and W0 should share a unit")
	}
	if !c.SharesUnit(d0, s0) {
		t.Error("D0 and S0 should share a unit")
	}
	if c.SharesUnit(x0, x1) {
		t.Error("X0 and X1 should not share a unit")
	}
	if c.SharesUnit(x0, d0) {
		t.Error("X0 and D0 should not share a unit")
	}
}

func TestARM64Reserved(t *testing.T) {
	c := ARM64()
	for _, name := range []string{"X18", "W18", "X29", "X30"} {
		if !c.IsReserved(mustLookup(t, c, name)) {
			t.Errorf("%s should be reserved", name)
		}
	}
	if c.IsReserved(mustLookup(t, c, "X0")) {
		t.Error("X0 should not be reserved")
	}
	if !c.IsReserved(reg.NoReg) {
		t.Error("NoReg should count as reserved")
	}
}

func TestARM64Classes(t *testing.T) {
	c := ARM64()
	gpr64, ok := c.ClassByName("gpr64")
	if !ok {
		t.Fatal("gpr64 class missing")
	}
	order := c.RawAllocationOrder(gpr64)
	if len(order) != 31 {
		t.Errorf("gpr64 has %d members, want 31", len(order))
	}
	if c.RegName(order[0]) != "X0" {
		t.Errorf("first gpr64 register = %s, want X0", c.RegName(order[0]))
	}
	if !c.InClass(gpr64, mustLookup(t, c, "X5")) {
		t.Error("X5 should be in gpr64")
	}
	if c.InClass(gpr64, mustLookup(t, c, "W5")) {
		t.Error("W5 should not be in gpr64")
	}
	if got := c.SpillSize(gpr64); got != 8 {
		t.Errorf("gpr64 spill size = %d, want 8", got)
	}
}

func TestUsedCalleeSaved(t *testing.T) {
	c := ARM64()
	assign := map[reg.VReg]reg.PReg{
		1: mustLookup(t, c, "X0"),
		2: mustLookup(t, c, "W20"), // alias of callee-saved X20
		3: mustLookup(t, c, "D9"),
		4: mustLookup(t, c, "X19"),
	}
	got := c.UsedCalleeSaved(assign)
	var names []string
	for _, p := range got {
		names = append(names, c.RegName(p))
	}
	if strings.Join(names, ",") != "X19,X20,D9" {
		t.Errorf("UsedCalleeSaved = %v, want [X19 X20 D9]", names)
	}
}

func TestCalleeSavedList(t *testing.T) {
	c := ARM64()
	if got := len(c.CalleeSaved()); got != 18 {
		t.Errorf("callee-saved count = %d, want 18", got)
	}
	if !c.IsCalleeSaved(mustLookup(t, c, "D15")) {
		t.Error("D15 should be callee-saved")
	}
	if c.IsCalleeSaved(mustLookup(t, c, "D16")) {
		t.Error("D16 should not be callee-saved")
	}
}

func TestLoad(t *testing.T) {
	src := `
name: toy
registers:
  - {name: r0, units: [0]}
  - {name: r1, units: [1], callee_saved: true}
  - {name: r01, units: [0, 1]}
  - {name: sp, units: [2], reserved: true}
classes:
  - {name: gpr, spill_size: 8, members: [r0, r1, sp]}
  - {name: pair, spill_size: 16, members: [r01]}
`
	c, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Name != "toy" {
		t.Errorf("Name = %q, want toy", c.Name)
	}
	r01 := mustLookup(t, c, "r01")
	if !c.SharesUnit(r01, mustLookup(t, c, "r0")) || !c.SharesUnit(r01, mustLookup(t, c, "r1")) {
		t.Error("r01 should alias r0 and r1")
	}
	if !c.IsReserved(mustLookup(t, c, "sp")) {
		t.Error("sp should be reserved")
	}
	pair, _ := c.ClassByName("pair")
	if c.SpillSize(pair) != 16 {
		t.Errorf("pair spill size = %d, want 16", c.SpillSize(pair))
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown member", "name: t\nregisters:\n  - {name: r0, units: [0]}\nclasses:\n  - {name: c, members: [r9]}\n"},
		{"duplicate register", "name: t\nregisters:\n  - {name: r0, units: [0]}\n  - {name: r0, units: [1]}\nclasses:\n  - {name: c, members: [r0]}\n"},
		{"no units", "name: t\nregisters:\n  - {name: r0}\nclasses:\n  - {name: c, members: [r0]}\n"},
		{"no classes", "name: t\nregisters:\n  - {name: r0, units: [0]}\n"},
		{"unknown field", "name: t\nbogus: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.src)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		build func(c *Catalog)
	}{
		{"duplicate name", func(c *Catalog) {
			c.AddReg("r0", []reg.Unit{0}, false, false)
			c.AddReg("r0", []reg.Unit{1}, false, false)
		}},
		{"empty name", func(c *Catalog) {
			c.AddReg("", []reg.Unit{0}, false, false)
		}},
		{"no units", func(c *Catalog) {
			c.AddReg("r0", nil, false, false)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCatalog("t")
			tt.build(c)
			c.AddReg("r9", []reg.Unit{9}, false, false)
			if _, err := c.AddClass("c", 8, "r9"); err != nil {
				t.Fatal(err)
			}
			if err := c.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if err := ARM64().Validate(); err != nil {
		t.Errorf("ARM64: %v", err)
	}
}

func TestResolve(t *testing.T) {
	c, err := Resolve("arm64")
	if err != nil || c.Name != "arm64" {
		t.Fatalf("Resolve(arm64) = %v, %v", c, err)
	}
	if _, err := Resolve("z80"); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("Resolve(z80) error = %v, want ErrUnknownTarget", err)
	}
}
