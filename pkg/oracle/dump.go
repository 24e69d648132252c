package oracle

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/reg"
	"github.com/raymyers/ralph-ra/pkg/regalloc"
)

const (
	// DefaultSlots is the node count every class graph is padded to
	DefaultSlots = 100
	// MaxSlots is the most nodes two 64-bit adjacency words can describe
	MaxSlots = 128

	// AdjacencyFile and MappingFile are the names Dump writes
	AdjacencyFile = "interference.csv"
	MappingFile   = "mapping.csv"
)

// ClassGraph is the part of an interference graph of one register class.
// A register's slot is its position in VRegs.
type ClassGraph struct {
	Class reg.ClassID
	VRegs []reg.VReg
}

// Partition splits the bounded nodes of g by class, classes and slots
// ascending. Unbounded registers need no color and are left out. Edges
// between aliasing classes are not part of any class graph: reconciliation
// keeps the colors of different classes in different congruence classes.
func Partition(g *regalloc.InterferenceGraph, cat regalloc.RegisterCatalog) []ClassGraph {
	byClass := make(map[reg.ClassID][]reg.VReg)
	for _, v := range g.SortedNodes() {
		if !g.Bounded(v) {
			continue
		}
		c := cat.ClassOf(v)
		byClass[c] = append(byClass[c], v)
	}

	out := make([]ClassGraph, 0, len(byClass))
	for c, vs := range byClass {
		out = append(out, ClassGraph{Class: c, VRegs: vs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}

// WriteAdjacency writes one record per class graph: the function name, the
// class id, then two words per slot holding the adjacency row of the slot
// (bit j of the first word for slot j < 64, bit j-64 of the second for the
// rest). Rows past the last register are zero.
func WriteAdjacency(w io.Writer, name string, g *regalloc.InterferenceGraph, parts []ClassGraph, slots int) error {
	if slots <= 0 {
		slots = DefaultSlots
	}
	if slots > MaxSlots {
		return errors.New("%d slots, at most %d fit the adjacency words", slots, MaxSlots)
	}

	cw := csv.NewWriter(w)
	for _, part := range parts {
		if len(part.VRegs) > slots {
			return errors.New("class %d has %d registers, more than %d slots", part.Class, len(part.VRegs), slots)
		}

		slotOf := make(map[reg.VReg]int, len(part.VRegs))
		for i, v := range part.VRegs {
			slotOf[v] = i
		}

		rec := make([]string, 0, 2+2*slots)
		rec = append(rec, name, strconv.FormatUint(uint64(part.Class), 10))
		for i := 0; i < slots; i++ {
			var lo, hi uint64
			if i < len(part.VRegs) {
				for _, n := range g.Neighbors(part.VRegs[i]) {
					j, ok := slotOf[n]
					switch {
					case !ok:
					case j < 64:
						lo |= 1 << uint(j)
					default:
						hi |= 1 << uint(j-64)
					}
				}
			}
			rec = append(rec, strconv.FormatUint(lo, 10), strconv.FormatUint(hi, 10))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMapping writes the registers of all class graphs in slot order, the
// order a coloring for the adjacency file must follow
func WriteMapping(w io.Writer, parts []ClassGraph) error {
	var rec []string
	for _, part := range parts {
		for _, v := range part.VRegs {
			rec = append(rec, strconv.FormatUint(uint64(v), 10))
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(rec); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Dump writes the adjacency and mapping files of g into dir
func Dump(dir, name string, g *regalloc.InterferenceGraph, cat regalloc.RegisterCatalog, slots int) error {
	parts := Partition(g, cat)

	write := func(file string, fn func(io.Writer) error) (err error) {
		path := filepath.Join(dir, file)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		if err = fn(f); err != nil {
			return errors.Wrap(err, "%s", path)
		}
		return nil
	}

	if err := write(AdjacencyFile, func(w io.Writer) error {
		return WriteAdjacency(w, name, g, parts, slots)
	}); err != nil {
		return err
	}
	return write(MappingFile, func(w io.Writer) error {
		return WriteMapping(w, parts)
	})
}
