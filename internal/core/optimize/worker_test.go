package optimize

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		line string
		pct  int
		ok   bool
	}{
		{"PROGRESS:42", 42, true},
		{"PROGRESS:0", 0, true},
		{"PROGRESS:100", 100, true},
		{"PROGRESS:42:resizing beach.jpg", 42, true},
		{"PROGRESS:7:stage:with:colons", 7, true},
		{"PROGRESS: 42", 42, true},
		{"NOT-PROGRESS:42", 0, false},
		{"progress:42", 0, false},
		{"PROGRESS:", 0, false},
		{"PROGRESS:abc", 0, false},
		{"resizing beach.jpg", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		pct, ok := parseProgress(tt.line)
		if ok != tt.ok || pct != tt.pct {
			t.Errorf("parseProgress(%q) = (%d, %v), want (%d, %v)", tt.line, pct, ok, tt.pct, tt.ok)
		}
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "optimize.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScript_ReportsProgress(t *testing.T) {
	script := writeScript(t, `
echo "starting $1/$2"
echo "PROGRESS:10"
echo "PROGRESS:60:resizing"
echo "PROGRESS:100"
`)

	d := &Descriptor{Album: "summer", Filename: "beach.jpg", ScriptPath: script}

	var got []int
	err := runScript(context.Background(), d, func(pct int) { got = append(got, pct) })
	if err != nil {
		t.Fatalf("runScript: %v", err)
	}
	if len(got) != 3 || got[0] != 10 || got[1] != 60 || got[2] != 100 {
		t.Errorf("progress = %v, want [10 60 100]", got)
	}
}

func TestRunScript_NonZeroExit(t *testing.T) {
	script := writeScript(t, `
echo "PROGRESS:50"
echo "out of memory" >&2
exit 3
`)

	d := &Descriptor{Album: "summer", Filename: "beach.jpg", ScriptPath: script}

	err := runScript(context.Background(), d, func(int) {})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !isExitError(err) {
		t.Errorf("error = %v, want *exec.ExitError", err)
	}
}

func TestRunScript_MissingScript(t *testing.T) {
	d := &Descriptor{ScriptPath: filepath.Join(t.TempDir(), "nope.sh")}

	err := runScript(context.Background(), d, func(int) {})
	if err == nil {
		t.Fatal("expected error for missing script")
	}
	if isExitError(err) {
		t.Errorf("spawn failure should not be an exit error: %v", err)
	}
}
