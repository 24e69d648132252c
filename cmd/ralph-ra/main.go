package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"tlog.app/go/errors"

	"github.com/raymyers/ralph-ra/pkg/config"
	"github.com/raymyers/ralph-ra/pkg/mfunc"
	"github.com/raymyers/ralph-ra/pkg/oracle"
	"github.com/raymyers/ralph-ra/pkg/reg"
	"github.com/raymyers/ralph-ra/pkg/regalloc"
	"github.com/raymyers/ralph-ra/pkg/target"
)

var version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ralph-ra: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	cfg := config.FromEnv()

	rootCmd := &cobra.Command{
		Use:   "ralph-ra",
		Short: "ralph-ra assigns physical registers to virtual registers",
		Long: `ralph-ra is a graph coloring register allocator. It reads a function
description (virtual registers with their live ranges) and assigns a
physical register of the target to each of them, spilling where needed.
An externally computed coloring can be supplied and is reconciled with
the register file before the built-in heuristic is used.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.AddCommand(
		newAllocCmd(&cfg, out, errOut),
		newDumpCmd(&cfg, out),
		newClassesCmd(&cfg, out),
	)
	return rootCmd
}

func newAllocCmd(cfg *config.Config, out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alloc FUNC.yaml",
		Short: "Allocate registers for a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doAlloc(cfg, args[0], out, errOut)
		},
	}
	cfg.BindFlags(cmd.Flags())
	return cmd
}

func newDumpCmd(cfg *config.Config, out io.Writer) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "dump FUNC.yaml",
		Short: "Write the interference graph and mapping files for an external colorer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doDump(cfg, args[0], dir, out)
		},
	}
	cfg.BindDumpFlags(cmd.Flags())
	cmd.Flags().StringVarP(&dir, "out", "o", ".", "output directory")
	return cmd
}

func newClassesCmd(cfg *config.Config, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Print the congruence classes of the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doClasses(cfg, out)
		},
	}
	cfg.BindTargetFlag(cmd.Flags())
	return cmd
}

// loadFunction reads a function file and builds it over the configured
// target, or the one the file names. A target file named by the function
// file is relative to it.
func loadFunction(cfg *config.Config, path string) (*mfunc.File, *mfunc.Function, *target.Catalog, error) {
	fd, err := mfunc.DecodeFile(path)
	if err != nil {
		return nil, nil, nil, err
	}

	name := cfg.Target
	if name == "" {
		name = fd.Target
		if isTargetFile(name) && !filepath.IsAbs(name) {
			name = filepath.Join(filepath.Dir(path), name)
		}
	}
	cat, err := target.Resolve(name)
	if err != nil {
		return nil, nil, nil, err
	}

	fn, err := fd.Build(cat)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "%s", path)
	}
	return fd, fn, cat, nil
}

func isTargetFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func doAlloc(cfg *config.Config, path string, out, errOut io.Writer) error {
	fd, fn, cat, err := loadFunction(cfg, path)
	if err != nil {
		return err
	}

	opts := regalloc.Options{
		MaxRounds: cfg.MaxRounds,
		Log:       cfg.Logger(errOut),
	}
	if cfg.HasOracle() {
		ac, err := oracle.Load(cfg.MappingFile, cfg.ColoringFile)
		if err != nil {
			fmt.Fprintf(errOut, "ralph-ra: warning: %v\n", err)
		} else {
			opts.Coloring = ac
		}
	}

	res, err := regalloc.AllocateFunction(fn, opts)
	if err != nil {
		return err
	}
	if cfg.Verify {
		if err := regalloc.Verify(fn, fn, res); err != nil {
			return errors.Wrap(err, "%s: verify", fn.Name())
		}
	}

	printResult(out, fd, fn, cat, res)
	return nil
}

// printResult writes one line per register of the input and per spill
// fragment, then the summary
func printResult(w io.Writer, fd *mfunc.File, fn *mfunc.Function, cat *target.Catalog, res *regalloc.Result) {
	ids := reg.NewVRegSet(fn.VirtRegs()...)
	for _, vd := range fd.VRegs {
		ids.Add(vd.ID)
	}

	for _, v := range ids.Sorted() {
		p, ok := res.Reg(v)
		switch {
		case ok && fn.Origin(v) != v:
			fmt.Fprintf(w, "%v -> %s (%v)\n", v, cat.RegName(p), fn.Origin(v))
		case ok:
			fmt.Fprintf(w, "%v -> %s\n", v, cat.RegName(p))
		case res.Spilled.Contains(v):
			fmt.Fprintf(w, "%v -> spilled\n", v)
		default:
			fmt.Fprintf(w, "%v -> none\n", v)
		}
	}

	fmt.Fprintf(w, "strategy: %v\n", res.Strategy)
	if res.Fallback != nil {
		fmt.Fprintf(w, "fallback: %v\n", res.Fallback)
	}
	fmt.Fprintf(w, "rounds: %d\n", res.Rounds)
	fmt.Fprintf(w, "frame: %d\n", fn.FrameSize())

	var saved []string
	for _, p := range cat.UsedCalleeSaved(res.Assignment) {
		saved = append(saved, cat.RegName(p))
	}
	if len(saved) == 0 {
		saved = []string{"none"}
	}
	fmt.Fprintf(w, "callee-saved: %s\n", strings.Join(saved, " "))
}

func doDump(cfg *config.Config, path, dir string, out io.Writer) error {
	_, fn, _, err := loadFunction(cfg, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	g := regalloc.BuildInterferenceGraph(fn, fn, fn)
	if err := oracle.Dump(dir, fn.Name(), g, fn, cfg.Slots); err != nil {
		return errors.Wrap(err, "%s", fn.Name())
	}
	for _, name := range []string{oracle.AdjacencyFile, oracle.MappingFile} {
		fmt.Fprintf(out, "wrote %s\n", filepath.Join(dir, name))
	}
	return nil
}

func doClasses(cfg *config.Config, out io.Writer) error {
	cat, err := target.Resolve(cfg.Target)
	if err != nil {
		return err
	}
	cong := regalloc.NewCongruence(cat)
	for _, members := range cong.Classes() {
		names := make([]string, len(members))
		for i, p := range members {
			names[i] = cat.RegName(p)
		}
		fmt.Fprintln(out, strings.Join(names, " "))
	}
	return nil
}
