package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleLog = `case,activity
1,A
1,B
1,C
2,A
2,C
3,A
3,B
3,C
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunWritesDOT(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "log.csv", sampleLog)

	var stdout, stderr bytes.Buffer
	args := []string{"-log", logPath, "-optimize=false", "-activities", "100", "-paths", "100"}
	if err := run(args, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.HasPrefix(out, `digraph "procmap" {`) {
		t.Errorf("output is not a DOT digraph:\n%s", out)
	}
	if !strings.Contains(out, `n1 -> n2 [label="2"`) {
		t.Errorf("missing A -> B edge:\n%s", out)
	}
	if !strings.Contains(stderr.String(), "Process map") {
		t.Errorf("summary not printed:\n%s", stderr.String())
	}
}

func TestRunWithSettingsAndJSON(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "log.csv", sampleLog)
	cfgPath := writeFile(t, dir, "procmap.yaml", "optimize: false\nactivity_rate: 100\npath_rate: 100\ncolored: false\n")
	outPath := filepath.Join(dir, "map.json")
	metricsPath := filepath.Join(dir, "metrics.txt")

	var stdout, stderr bytes.Buffer
	args := []string{"-log", logPath, "-config", cfgPath, "-format", "json",
		"-out", outPath, "-metrics", metricsPath, "-quiet"}
	if err := run(args, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"cases": 3`) {
		t.Errorf("unexpected JSON:\n%s", data)
	}
	if stdout.Len() != 0 || strings.Contains(stderr.String(), "Process map") {
		t.Errorf("quiet run wrote output: stdout=%q stderr=%q", stdout.String(), stderr.String())
	}

	text, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(text), "procmap_log_cases 3") {
		t.Errorf("metrics missing log cases:\n%s", text)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "log.csv", sampleLog)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing log flag", []string{}, "-log is required"},
		{"bad format", []string{"-log", logPath, "-format", "svg"}, "unknown format"},
		{"bad rate", []string{"-log", logPath, "-activities", "140"}, "rate out of range"},
		{"bad agg type", []string{"-log", logPath, "-agg-type", "sideways"}, "unknown aggregation type"},
		{"missing file", []string{"-log", filepath.Join(dir, "none.csv")}, "none.csv"},
		{"bad level", []string{"-log", logPath, "-log-level", "loud"}, "loud"},
		{"bad log format", []string{"-log", logPath, "-log-format", "xml"}, "unknown format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tt.args, &stdout, &stderr)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestOverridesOnlyApplyGivenFlags(t *testing.T) {
	o, set, err := parseFlags([]string{"-log", "x.csv", "-lambda", "0.2"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	params, err := overrides(o, set)
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 1 {
		t.Errorf("got %d params, want 1", len(params))
	}
}

func TestEnvironmentDefaults(t *testing.T) {
	t.Setenv("PROCMAP_LOG_FORMAT", "console")
	t.Setenv("PROCMAP_LOG_LEVEL", "debug")

	o, set, err := parseFlags([]string{"-log", "x.csv"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if o.logFormat != "console" || o.logLevel != "debug" {
		t.Errorf("log format/level = %q/%q, want console/debug", o.logFormat, o.logLevel)
	}
	if set["log-format"] {
		t.Error("environment default counted as an explicit flag")
	}
}

func TestRunConsoleLogs(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "log.csv", sampleLog)

	var stdout, stderr bytes.Buffer
	args := []string{"-log", logPath, "-optimize=false", "-log-format", "console", "-log-level", "info", "-quiet"}
	if err := run(args, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(stderr.String(), "map updated") {
		t.Errorf("console log missing update line:\n%s", stderr.String())
	}
	if strings.Contains(stderr.String(), `"msg"`) {
		t.Errorf("console log written as JSON:\n%s", stderr.String())
	}
}
