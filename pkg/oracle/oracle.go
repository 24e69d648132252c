// Package oracle exchanges interference graphs and colorings with an
// external coloring process.
//
// Both directions use single-line CSV files of unsigned integers. The
// mapping file lists virtual register indices, the coloring file the color
// of the mapping entry at the same position.
package oracle

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/reg"
	"github.com/raymyers/ralph-ra/pkg/regalloc"
)

// ErrNoColoring means the oracle files could not be used. It is not fatal:
// the allocator proceeds without a coloring.
var ErrNoColoring = errors.New("no oracle coloring")

// ReadList reads one line of comma separated unsigned integers. Blanks around
// fields and one trailing separator are accepted.
func ReadList(r io.Reader) ([]uint32, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	rec, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, err
	}

	out := make([]uint32, 0, len(rec))
	for i, field := range rec {
		field = strings.TrimSpace(field)
		if field == "" && i == len(rec)-1 {
			break
		}
		n, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return nil, errors.New("field %d: %q is not an unsigned integer", i, field)
		}
		out = append(out, uint32(n))
	}
	if len(out) == 0 {
		return nil, errors.New("no values")
	}
	return out, nil
}

// Parse reads a mapping and a coloring into an abstract coloring
func Parse(mapping, coloring io.Reader) (*regalloc.AbstractColoring, error) {
	vregs, err := ReadList(mapping)
	if err != nil {
		return nil, errors.Wrap(ErrNoColoring, "mapping: %v", err)
	}
	colors, err := ReadList(coloring)
	if err != nil {
		return nil, errors.Wrap(ErrNoColoring, "coloring: %v", err)
	}
	if len(vregs) != len(colors) {
		return nil, errors.Wrap(ErrNoColoring, "%d mapping entries for %d colors", len(vregs), len(colors))
	}

	ac := &regalloc.AbstractColoring{
		Mapping: make([]reg.VReg, len(vregs)),
		Colors:  colors,
	}
	for i, v := range vregs {
		ac.Mapping[i] = reg.VReg(v)
	}
	return ac, nil
}

// Load reads the mapping and coloring files
func Load(mappingPath, coloringPath string) (*regalloc.AbstractColoring, error) {
	m, err := os.Open(mappingPath)
	if err != nil {
		return nil, errors.Wrap(ErrNoColoring, "%v", err)
	}
	defer m.Close()

	c, err := os.Open(coloringPath)
	if err != nil {
		return nil, errors.Wrap(ErrNoColoring, "%v", err)
	}
	defer c.Close()

	ac, err := Parse(m, c)
	if err != nil {
		return nil, errors.Wrap(err, "%s, %s", mappingPath, coloringPath)
	}
	return ac, nil
}
