// Package config holds the settings of the ralph-ra command.
//
// Values come from defaults, then RALPH_RA_* environment variables, then
// command line flags.
package config

import (
	"io"

	"github.com/spf13/pflag"
	"github.com/xyproto/env/v2"
	"tlog.app/go/tlog"

	"github.com/raymyers/ralph-ra/pkg/oracle"
	"github.com/raymyers/ralph-ra/pkg/regalloc"
)

// Environment variables
const (
	EnvTarget    = "RALPH_RA_TARGET"
	EnvMapping   = "RALPH_RA_MAPPING"
	EnvColoring  = "RALPH_RA_COLORING"
	EnvMaxRounds = "RALPH_RA_MAX_ROUNDS"
	EnvVerify    = "RALPH_RA_VERIFY"
	EnvVerbose   = "RALPH_RA_VERBOSE"
	EnvSlots     = "RALPH_RA_SLOTS"
)

// Config is the full set of options of one invocation
type Config struct {
	// Target is a builtin target name or a yaml target file. Empty means the
	// target named by the function file, or arm64.
	Target string
	// MappingFile and ColoringFile locate an oracle coloring
	MappingFile  string
	ColoringFile string
	MaxRounds    int
	// Verify re-checks the assignment before printing it
	Verify bool
	// Verbose is a comma separated list of log topics
	Verbose string
	// Slots is the node count of dumped class graphs
	Slots int
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		MaxRounds: regalloc.DefaultMaxRounds,
		Slots:     oracle.DefaultSlots,
	}
}

// FromEnv returns the defaults overridden by the environment
func FromEnv() Config {
	c := Default()
	c.Target = env.Str(EnvTarget, c.Target)
	c.MappingFile = env.Str(EnvMapping, c.MappingFile)
	c.ColoringFile = env.Str(EnvColoring, c.ColoringFile)
	c.MaxRounds = env.Int(EnvMaxRounds, c.MaxRounds)
	c.Verify = env.Bool(EnvVerify)
	c.Verbose = env.Str(EnvVerbose, c.Verbose)
	c.Slots = env.Int(EnvSlots, c.Slots)
	return c
}

// BindTargetFlag registers --target on fs
func (c *Config) BindTargetFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Target, "target", "t", c.Target, "target name (arm64) or yaml target file")
}

// BindFlags registers the allocation flags on fs, with the current values of
// c as defaults
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	c.BindTargetFlag(fs)
	fs.StringVar(&c.MappingFile, "mapping", c.MappingFile, "oracle mapping file (vreg indices)")
	fs.StringVar(&c.ColoringFile, "coloring", c.ColoringFile, "oracle coloring file (one color per mapping entry)")
	fs.IntVar(&c.MaxRounds, "max-rounds", c.MaxRounds, "maximum spill rounds")
	fs.BoolVar(&c.Verify, "verify", c.Verify, "check the assignment before printing it")
	fs.StringVarP(&c.Verbose, "verbose", "v", c.Verbose, "log topics, comma separated (regalloc,simplify,select,spill,oracle)")
}

// BindDumpFlags registers the flags of the dump command
func (c *Config) BindDumpFlags(fs *pflag.FlagSet) {
	c.BindTargetFlag(fs)
	fs.IntVar(&c.Slots, "slots", c.Slots, "node count each class graph is padded to")
}

// HasOracle reports whether both oracle files are set
func (c *Config) HasOracle() bool {
	return c.MappingFile != "" && c.ColoringFile != ""
}

// Logger returns a logger writing to w with the configured topics enabled,
// or nil if no topic is
func (c *Config) Logger(w io.Writer) *tlog.Logger {
	if c.Verbose == "" {
		return nil
	}
	l := tlog.New(tlog.NewConsoleWriter(w, tlog.LstdFlags))
	l.SetVerbosity(c.Verbose)
	return l
}
