package config

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Target != "" || c.MaxRounds != 64 || c.Slots != 100 {
		t.Errorf("Default = %+v", c)
	}
	if c.HasOracle() {
		t.Error("no oracle by default")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvTarget, "custom.yaml")
	t.Setenv(EnvMaxRounds, "5")
	t.Setenv(EnvVerify, "true")
	t.Setenv(EnvMapping, "m.csv")
	t.Setenv(EnvColoring, "c.csv")

	c := FromEnv()
	if c.Target != "custom.yaml" {
		t.Errorf("Target = %q", c.Target)
	}
	if c.MaxRounds != 5 {
		t.Errorf("MaxRounds = %d", c.MaxRounds)
	}
	if !c.Verify {
		t.Error("Verify should be set")
	}
	if !c.HasOracle() {
		t.Error("both oracle files are set")
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv(EnvMaxRounds, "5")
	c := FromEnv()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.BindFlags(fs)
	if err := fs.Parse([]string{"--max-rounds", "9", "-v", "spill"}); err != nil {
		t.Fatal(err)
	}
	if c.MaxRounds != 9 {
		t.Errorf("MaxRounds = %d, want 9", c.MaxRounds)
	}
	if c.Verbose != "spill" {
		t.Errorf("Verbose = %q", c.Verbose)
	}

	// Unset flags keep the environment value
	c = FromEnv()
	fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.BindFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	if c.MaxRounds != 5 {
		t.Errorf("MaxRounds = %d, want 5", c.MaxRounds)
	}
}

func TestLogger(t *testing.T) {
	c := Default()
	var buf bytes.Buffer
	if c.Logger(&buf) != nil {
		t.Error("no topics should mean no logger")
	}
	c.Verbose = "regalloc"
	if c.Logger(&buf) == nil {
		t.Error("expected a logger")
	}
}
