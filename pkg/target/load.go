package target

import (
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/reg"
)

// File is the yaml form of a target description:
//
//	name: toy
//	registers:
//	  - {name: r0, units: [0]}
//	  - {name: r1, units: [1], callee_saved: true}
//	  - {name: sp, units: [2], reserved: true}
//	classes:
//	  - {name: gpr, spill_size: 8, members: [r0, r1, sp]}
type File struct {
	Name      string        `yaml:"name"`
	Registers []RegisterDef `yaml:"registers"`
	Classes   []ClassDef    `yaml:"classes"`
}

// RegisterDef is one register entry of a target file
type RegisterDef struct {
	Name        string     `yaml:"name"`
	Units       []reg.Unit `yaml:"units"`
	Reserved    bool       `yaml:"reserved,omitempty"`
	CalleeSaved bool       `yaml:"callee_saved,omitempty"`
}

// ClassDef is one register class entry of a target file
type ClassDef struct {
	Name      string   `yaml:"name"`
	SpillSize int64    `yaml:"spill_size,omitempty"`
	Members   []string `yaml:"members"`
}

// Build turns a parsed target file into a validated catalog
func (f *File) Build() (*Catalog, error) {
	c := NewCatalog(f.Name)
	for _, r := range f.Registers {
		c.AddReg(r.Name, r.Units, r.Reserved, r.CalleeSaved)
	}
	for _, cls := range f.Classes {
		if _, err := c.AddClass(cls.Name, cls.SpillSize, cls.Members...); err != nil {
			return nil, errors.Wrap(err, "target %s", f.Name)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a yaml target description
func Load(r io.Reader) (*Catalog, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode target")
	}
	return f.Build()
}

// LoadFile reads a yaml target description from path
func LoadFile(path string) (*Catalog, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	c, err := Load(fd)
	if err != nil {
		return nil, errors.Wrap(err, "%s", path)
	}
	return c, nil
}

// Resolve maps a --target value to a catalog: a builtin name or a yaml file
func Resolve(name string) (*Catalog, error) {
	switch strings.ToLower(name) {
	case "", "arm64", "aarch64":
		return ARM64(), nil
	}
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return LoadFile(name)
	}
	return nil, errors.Wrap(ErrUnknownTarget, "%q", name)
}
