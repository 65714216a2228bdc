package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/preflight"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

func captureStderr(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := util.Stderr
	util.Stderr = &buf
	t.Cleanup(func() { util.Stderr = old })
	return &buf
}

func TestParseOverrides(t *testing.T) {
	got, err := parseOverrides([]string{"versions.hadoop=3.3.6", "hive.db_password=a=b", " eclipse.enabled =true"})
	if err != nil {
		t.Fatalf("parseOverrides() error = %v", err)
	}
	want := map[string]interface{}{
		"versions.hadoop":  "3.3.6",
		"hive.db_password": "a=b",
		"eclipse.enabled":  "true",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseOverrides() = %v, want %v", got, want)
	}

	for _, bad := range []string{"novalue", "=x"} {
		_, err := parseOverrides([]string{bad})
		if !install.IsKind(err, install.Precondition) {
			t.Errorf("parseOverrides(%q) error = %v, want a precondition error", bad, err)
		}
	}
}

func TestAcceptWarnings(t *testing.T) {
	warned := &preflight.Report{Checks: []preflight.Check{{Name: "memory", Status: preflight.Warn}}}
	clean := &preflight.Report{Checks: []preflight.Check{{Name: "memory", Status: preflight.OK}}}

	tests := []struct {
		name        string
		report      *preflight.Report
		flags       installFlags
		interactive bool
		answer      string
		want        bool
	}{
		{"no warnings", clean, installFlags{strict: true}, false, "", true},
		{"yes flag", warned, installFlags{yes: true}, true, "", true},
		{"strict", warned, installFlags{strict: true}, false, "", false},
		{"non-interactive accepts", warned, installFlags{}, false, "", true},
		{"interactive yes", warned, installFlags{}, true, "y\n", true},
		{"interactive default no", warned, installFlags{}, true, "\n", false},
		{"interactive closed stdin", warned, installFlags{}, true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := acceptWarnings(tt.report, tt.flags, tt.interactive, bufio.NewReader(strings.NewReader(tt.answer)), &out)
			if got != tt.want {
				t.Errorf("acceptWarnings() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfirm_SharesMenuInput(t *testing.T) {
	// Typed ahead: answer to a prompt, then the next menu choice.
	in := bufio.NewReader(strings.NewReader("y\n2\n"))
	var out bytes.Buffer

	if !confirm(in, &out, "Continue anyway?") {
		t.Fatal("confirm() = false, want true")
	}
	item, ok := promptMenu(in, &out)
	if !ok || item == nil {
		t.Fatalf("promptMenu() = %v, %v after confirm", item, ok)
	}
	if item.command != menuItems[1].command {
		t.Errorf("menu choice = %q, want %q", item.command, menuItems[1].command)
	}
}

func TestParseChoice(t *testing.T) {
	captureStderr(t)

	item, ok := parseChoice("1\n")
	if !ok || item == nil || item.command != "install" {
		t.Errorf("parseChoice(1) = %v, %v", item, ok)
	}
	if _, ok := parseChoice("q"); ok {
		t.Error("parseChoice(q) should quit")
	}
	if item, ok := parseChoice("99"); !ok || item != nil {
		t.Errorf("parseChoice(99) = %v, %v; want invalid choice", item, ok)
	}
}

func TestMenuCommandsExist(t *testing.T) {
	for _, item := range menuItems {
		sub, _, err := rootCmd.Find(strings.Fields(item.command))
		if err != nil || sub == rootCmd || sub.RunE == nil {
			t.Errorf("menu item %q does not resolve to a runnable command", item.command)
		}
	}
}

func TestTailLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "namenode.log")
	var content strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&content, "line %d\n", i)
	}
	if err := os.WriteFile(path, []byte(content.String()), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := tailLines(path, 3)
	if err != nil {
		t.Fatalf("tailLines() error = %v", err)
	}
	if want := []string{"line 8", "line 9", "line 10"}; !reflect.DeepEqual(got, want) {
		t.Errorf("tailLines() = %v, want %v", got, want)
	}

	all, _ := tailLines(path, 50)
	if len(all) != 10 {
		t.Errorf("tailLines(50) returned %d lines, want 10", len(all))
	}

	if _, err := tailLines(filepath.Join(t.TempDir(), "missing.log"), 3); err == nil {
		t.Error("tailLines() of a missing file should fail")
	}
}

func TestFinish_ExitCodes(t *testing.T) {
	stderr := captureStderr(t)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, install.ExitOK},
		{"precondition", install.PreconditionError("free disk space", "disk full"), install.ExitPrecondition},
		{"download", install.Errorf(install.Download, "", "all mirrors failed"), install.ExitDownload},
		{"service", install.Errorf(install.ServiceStart, "", "namenode not ready"), install.ExitServiceStart},
		{"interrupted", context.Canceled, install.ExitInterrupted},
		{"plain", errors.New("boom"), install.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := finish(tt.err); got != tt.want {
				t.Errorf("finish() = %d, want %d", got, tt.want)
			}
		})
	}

	if !strings.Contains(stderr.String(), "hint: free disk space") {
		t.Errorf("stderr should carry the hint, got:\n%s", stderr.String())
	}
	if !strings.Contains(stderr.String(), "rerun the same command to resume") {
		t.Errorf("stderr should explain the interruption, got:\n%s", stderr.String())
	}
}
