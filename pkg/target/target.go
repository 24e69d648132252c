// Package target describes the physical register file of a machine: which
// registers exist, which storage units they occupy, how they are grouped into
// register classes and which of them are reserved or callee-saved.
package target

import (
	"sort"

	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/reg"
)

// ErrUnknownTarget is returned by Resolve for names that are neither builtin
// nor a readable target file.
var ErrUnknownTarget = errors.New("unknown target")

// PhysReg describes one physical register
type PhysReg struct {
	ID          reg.PReg
	Name        string
	Units       []reg.Unit
	Reserved    bool
	CalleeSaved bool
}

// Class is a set of interchangeable physical registers.
// Members are kept in raw allocation order.
type Class struct {
	ID        reg.ClassID
	Name      string
	Members   []reg.PReg
	SpillSize int64 // bytes needed for a stack slot of this class
}

// Catalog is an immutable (once built) description of a register file.
type Catalog struct {
	Name string

	regs        []PhysReg // indexed by PReg; entry 0 is the NoReg placeholder
	byName      map[string]reg.PReg
	classes     []Class
	classByName map[string]reg.ClassID
	membership  []reg.PRegSet // per class, for InClass
}

// NewCatalog creates an empty catalog
func NewCatalog(name string) *Catalog {
	return &Catalog{
		Name:        name,
		regs:        []PhysReg{{}},
		byName:      make(map[string]reg.PReg),
		classByName: make(map[string]reg.ClassID),
	}
}

// AddReg adds a physical register and returns its id
func (c *Catalog) AddReg(name string, units []reg.Unit, reserved, calleeSaved bool) reg.PReg {
	id := reg.PReg(len(c.regs))
	c.regs = append(c.regs, PhysReg{
		ID:          id,
		Name:        name,
		Units:       append([]reg.Unit(nil), units...),
		Reserved:    reserved,
		CalleeSaved: calleeSaved,
	})
	c.byName[name] = id
	return id
}

// AddClass adds a register class over already-added registers.
// Members are given by name in allocation order.
func (c *Catalog) AddClass(name string, spillSize int64, members ...string) (reg.ClassID, error) {
	if _, dup := c.classByName[name]; dup {
		return 0, errors.New("duplicate class %q", name)
	}
	id := reg.ClassID(len(c.classes))
	cls := Class{ID: id, Name: name, SpillSize: spillSize}
	set := reg.NewPRegSet()
	for _, m := range members {
		p, ok := c.byName[m]
		if !ok {
			return 0, errors.New("class %q: unknown register %q", name, m)
		}
		cls.Members = append(cls.Members, p)
		set.Add(p)
	}
	c.classes = append(c.classes, cls)
	c.membership = append(c.membership, set)
	c.classByName[name] = id
	return id, nil
}

// Reg returns the description of p
func (c *Catalog) Reg(p reg.PReg) (PhysReg, bool) {
	if p == reg.NoReg || int(p) >= len(c.regs) {
		return PhysReg{}, false
	}
	return c.regs[p], true
}

// Lookup finds a physical register by name
func (c *Catalog) Lookup(name string) (reg.PReg, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// ClassByName finds a register class by name
func (c *Catalog) ClassByName(name string) (reg.ClassID, bool) {
	id, ok := c.classByName[name]
	return id, ok
}

// Class returns the class with the given id
func (c *Catalog) Class(id reg.ClassID) (Class, bool) {
	if int(id) >= len(c.classes) {
		return Class{}, false
	}
	return c.classes[id], true
}

// Classes returns all classes in id order
func (c *Catalog) Classes() []Class {
	return c.classes
}

// IsReserved reports whether p may never be allocated
func (c *Catalog) IsReserved(p reg.PReg) bool {
	r, ok := c.Reg(p)
	return !ok || r.Reserved
}

// RawAllocationOrder returns the members of class id, reserved ones included
func (c *Catalog) RawAllocationOrder(id reg.ClassID) []reg.PReg {
	cls, ok := c.Class(id)
	if !ok {
		return nil
	}
	return cls.Members
}

// InClass reports whether p belongs to class id
func (c *Catalog) InClass(id reg.ClassID, p reg.PReg) bool {
	if int(id) >= len(c.membership) {
		return false
	}
	return c.membership[id].Contains(p)
}

// Units returns the storage units p occupies
func (c *Catalog) Units(p reg.PReg) []reg.Unit {
	r, _ := c.Reg(p)
	return r.Units
}

// SharesUnit reports whether a and b overlap in at least one storage unit
func (c *Catalog) SharesUnit(a, b reg.PReg) bool {
	for _, ua := range c.Units(a) {
		for _, ub := range c.Units(b) {
			if ua == ub {
				return true
			}
		}
	}
	return false
}

// PhysRegs returns every physical register id in ascending order
func (c *Catalog) PhysRegs() []reg.PReg {
	out := make([]reg.PReg, 0, len(c.regs)-1)
	for i := 1; i < len(c.regs); i++ {
		out = append(out, reg.PReg(i))
	}
	return out
}

// RegName returns the assembly name of p
func (c *Catalog) RegName(p reg.PReg) string {
	r, ok := c.Reg(p)
	if !ok {
		return "none"
	}
	return r.Name
}

// SpillSize returns the stack slot size for values of class id
func (c *Catalog) SpillSize(id reg.ClassID) int64 {
	cls, ok := c.Class(id)
	if !ok || cls.SpillSize == 0 {
		return 8
	}
	return cls.SpillSize
}

// UsedCalleeSaved returns the callee-saved registers an assignment touches.
// A register counts as touched when any assigned register aliases it.
func (c *Catalog) UsedCalleeSaved(assign map[reg.VReg]reg.PReg) []reg.PReg {
	saved := c.CalleeSaved()
	touched := reg.NewPRegSet()
	for _, p := range assign {
		if c.IsCalleeSaved(p) {
			touched.Add(p)
			continue
		}
		for _, cs := range saved {
			if c.SharesUnit(p, cs) {
				touched.Add(cs)
			}
		}
	}
	return touched.Sorted()
}

// Validate checks the catalog is internally consistent
func (c *Catalog) Validate() error {
	if len(c.classes) == 0 {
		return errors.New("target %s: no register classes", c.Name)
	}
	for _, r := range c.regs[1:] {
		if r.Name == "" {
			return errors.New("target %s: register without a name", c.Name)
		}
		// A later register with the same name took over the lookup
		if c.byName[r.Name] != r.ID {
			return errors.New("target %s: duplicate register %q", c.Name, r.Name)
		}
		if len(r.Units) == 0 {
			return errors.New("target %s: register %s occupies no units", c.Name, r.Name)
		}
	}
	for _, cls := range c.classes {
		if len(cls.Members) == 0 {
			return errors.New("target %s: class %s is empty", c.Name, cls.Name)
		}
	}
	return nil
}

// sortRegs sorts registers by id
func sortRegs(regs []reg.PReg) {
	sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })
}
