package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const testdataDir = "../../testdata"

// ScenarioSpec represents a single command line scenario
type ScenarioSpec struct {
	Name         string   `yaml:"name"`
	Args         []string `yaml:"args"`
	Expect       []string `yaml:"expect"`        // Strings that must appear in stdout
	ExpectNot    []string `yaml:"expect_not"`    // Strings that must NOT appear in stdout
	ExpectStderr []string `yaml:"expect_stderr"` // Strings that must appear in stderr
	Error        string   `yaml:"error"`         // Expected error substring, empty for success
	Skip         string   `yaml:"skip,omitempty"`
}

// ScenarioFile represents the scenarios.yaml file structure
type ScenarioFile struct {
	Tests []ScenarioSpec `yaml:"tests"`
}

// resolveArgs rewrites arguments naming a file under testdata
func resolveArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg
		if strings.HasPrefix(arg, "-") {
			continue
		}
		path := filepath.Join(testdataDir, arg)
		if _, err := os.Stat(path); err == nil {
			out[i] = path
		}
	}
	return out
}

func TestScenarios(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(testdataDir, "scenarios.yaml"))
	if err != nil {
		t.Fatalf("failed to read scenarios.yaml: %v", err)
	}

	var file ScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatalf("failed to parse scenarios.yaml: %v", err)
	}
	if len(file.Tests) == 0 {
		t.Fatal("no scenarios")
	}

	for _, tc := range file.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			var out, errOut bytes.Buffer
			cmd := newRootCmd(&out, &errOut)
			cmd.SetArgs(resolveArgs(tc.Args))
			err := cmd.Execute()

			if tc.Error != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got output:\n%s", tc.Error, out.String())
				}
				if !strings.Contains(err.Error(), tc.Error) {
					t.Errorf("error %q does not contain %q", err, tc.Error)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v\nstderr:\n%s", err, errOut.String())
			}

			output := out.String()
			for _, exp := range tc.Expect {
				if !strings.Contains(output, exp) {
					t.Errorf("expected output to contain %q, got:\n%s", exp, output)
				}
			}
			for _, notExp := range tc.ExpectNot {
				if strings.Contains(output, notExp) {
					t.Errorf("expected output NOT to contain %q, got:\n%s", notExp, output)
				}
			}
			for _, exp := range tc.ExpectStderr {
				if !strings.Contains(errOut.String(), exp) {
					t.Errorf("expected stderr to contain %q, got:\n%s", exp, errOut.String())
				}
			}
		})
	}
}
