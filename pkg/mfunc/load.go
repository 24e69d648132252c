package mfunc

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/reg"
	"github.com/raymyers/ralph-ra/pkg/target"
)

// File is the yaml form of a function:
//
//	name: f
//	target: arm64
//	vregs:
//	  - {id: 0, class: gpr64, live: [[0, 10]]}
//	  - id: 1
//	    class: gpr64
//	    live: [[2, 4], [6, 8]]
//	    points: [{pos: 2, kind: def}, {pos: 7, kind: use}]
//	fixed:
//	  - {reg: X0, live: [[0, 3]]}
//
// Live ranges are half-open [start, end) program-point pairs.
type File struct {
	Name   string     `yaml:"name"`
	Target string     `yaml:"target,omitempty"`
	VRegs  []VRegDef  `yaml:"vregs"`
	Fixed  []FixedDef `yaml:"fixed,omitempty"`
}

// VRegDef is one virtual register of a function file
type VRegDef struct {
	ID      reg.VReg   `yaml:"id"`
	Class   string     `yaml:"class"`
	Live    [][]int    `yaml:"live"`
	Points  []PointDef `yaml:"points,omitempty"`
	NoSpill bool       `yaml:"nospill,omitempty"`
	Remat   bool       `yaml:"remat,omitempty"`
}

// PointDef is a def/use/debug occurrence
type PointDef struct {
	Pos  int    `yaml:"pos"`
	Kind string `yaml:"kind"`
}

// FixedDef is the fixed liveness of a physical register
type FixedDef struct {
	Reg  string  `yaml:"reg"`
	Live [][]int `yaml:"live"`
}

func segments(pairs [][]int) ([]Segment, error) {
	segs := make([]Segment, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, errors.New("range %v is not a [start, end) pair", p)
		}
		if p[1] < p[0] {
			return nil, errors.New("inverted range [%d,%d)", p[0], p[1])
		}
		segs[i] = Segment{Start: p[0], End: p[1]}
	}
	return segs, nil
}

func parseKind(s string) (PointKind, bool) {
	switch s {
	case "def":
		return Def, true
	case "use":
		return Use, true
	case "debug", "dbg":
		return Debug, true
	}
	return 0, false
}

// Build creates the function over cat
func (fd *File) Build(cat *target.Catalog) (*Function, error) {
	if fd.Name == "" {
		return nil, errors.Wrap(ErrBadFunction, "function without a name")
	}
	f := New(fd.Name, cat)

	for _, vd := range fd.VRegs {
		class, ok := cat.ClassByName(vd.Class)
		if !ok {
			return nil, errors.Wrap(ErrBadFunction, "%s: %v: unknown class %q", fd.Name, vd.ID, vd.Class)
		}
		live, err := segments(vd.Live)
		if err != nil {
			return nil, errors.Wrap(ErrBadFunction, "%s: %v: %v", fd.Name, vd.ID, err)
		}

		var points []Point
		for _, pd := range vd.Points {
			kind, ok := parseKind(pd.Kind)
			if !ok {
				return nil, errors.Wrap(ErrBadFunction, "%s: %v: unknown point kind %q", fd.Name, vd.ID, pd.Kind)
			}
			points = append(points, Point{Pos: pd.Pos, Kind: kind})
		}

		vr, err := f.AddVirtReg(vd.ID, class, live, points)
		if err != nil {
			return nil, errors.Wrap(err, "%s", fd.Name)
		}
		vr.NoSpill = vd.NoSpill
		vr.Remat = vd.Remat
	}

	for _, fx := range fd.Fixed {
		p, ok := cat.Lookup(fx.Reg)
		if !ok {
			return nil, errors.Wrap(ErrBadFunction, "%s: fixed: unknown register %q", fd.Name, fx.Reg)
		}
		live, err := segments(fx.Live)
		if err != nil {
			return nil, errors.Wrap(ErrBadFunction, "%s: fixed %s: %v", fd.Name, fx.Reg, err)
		}
		f.AddFixed(p, live...)
	}
	return f, nil
}

// Decode parses a yaml function file without building it, so the caller can
// pick the target first
func Decode(r io.Reader) (*File, error) {
	var fd File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fd); err != nil {
		return nil, errors.Wrap(ErrBadFunction, "decode: %v", err)
	}
	return &fd, nil
}

// DecodeFile parses the yaml function file at path
func DecodeFile(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	fd, err := Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "%s", path)
	}
	return fd, nil
}

// Load decodes and builds a function over cat
func Load(r io.Reader, cat *target.Catalog) (*Function, error) {
	fd, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return fd.Build(cat)
}
