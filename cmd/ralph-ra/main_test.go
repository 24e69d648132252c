package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raymyers/ralph-ra/pkg/config"
	"github.com/raymyers/ralph-ra/pkg/oracle"
	"github.com/raymyers/ralph-ra/pkg/regalloc"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestSubcommandsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, name := range []string{"alloc", "dump", "classes"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("expected subcommand %s", name)
		}
	}
}

func TestAllocFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	alloc, _, _ := cmd.Find([]string{"alloc"})

	expectedFlags := []string{"target", "mapping", "coloring", "max-rounds", "verify", "verbose"}
	for _, flagName := range expectedFlags {
		if alloc.Flags().Lookup(flagName) == nil {
			t.Errorf("expected flag --%s to exist", flagName)
		}
	}
}

func TestAllocNeedsFile(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"alloc"})
	if err := cmd.Execute(); err == nil {
		t.Error("alloc without a file should fail")
	}
}

func TestAllocMissingFile(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"alloc", filepath.Join(t.TempDir(), "nope.yaml")})
	err := cmd.Execute()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestAllocUnallocatable(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"alloc", filepath.Join(testdataDir, "pinned.yaml")})
	err := cmd.Execute()
	if !errors.Is(err, regalloc.ErrUnallocatable) {
		t.Errorf("expected ErrUnallocatable, got %v", err)
	}
}

func TestAllocVerboseLogs(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"alloc", filepath.Join(testdataDir, "chain.yaml"),
		"--target", filepath.Join(testdataDir, "targets", "one.yaml"), "--verbose", "spill"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut.String(), "spilled") {
		t.Errorf("expected spill log lines, got %q", errOut.String())
	}
}

func TestAllocTargetFromEnv(t *testing.T) {
	t.Setenv(config.EnvTarget, filepath.Join(testdataDir, "targets", "two.yaml"))

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"alloc", filepath.Join(testdataDir, "chain.yaml")})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "v1 -> P1") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestDump(t *testing.T) {
	dir := t.TempDir()

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"dump", filepath.Join(testdataDir, "chain.yaml"),
		"--target", filepath.Join(testdataDir, "targets", "two.yaml"), "--out", dir, "--slots", "4"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	adj, err := os.ReadFile(filepath.Join(dir, oracle.AdjacencyFile))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(adj)); got != "chain,0,2,0,5,0,2,0,0,0" {
		t.Errorf("adjacency = %q", got)
	}
	mapping, err := os.ReadFile(filepath.Join(dir, oracle.MappingFile))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(mapping)); got != "0,1,2" {
		t.Errorf("mapping = %q", got)
	}
	if !strings.Contains(out.String(), oracle.MappingFile) {
		t.Errorf("expected the written files to be listed, got %q", out.String())
	}
}

func TestDumpThenAlloc(t *testing.T) {
	// The dumped mapping pairs with a coloring computed outside
	dir := t.TempDir()
	fn := filepath.Join(testdataDir, "chain_fixed.yaml")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"dump", fn, "--out", dir})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	coloring := filepath.Join(dir, "result.csv")
	if err := os.WriteFile(coloring, []byte("3,4,3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	cmd = newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"alloc", fn, "--mapping", filepath.Join(dir, oracle.MappingFile), "--coloring", coloring})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "strategy: oracle") {
		t.Errorf("expected the oracle coloring to be used, got:\n%s", out.String())
	}
}
