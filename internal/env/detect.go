package env

import (
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/danieljhkim/bigdata-wsl/internal/runner"
)

// JavaDetector inspects the configured Java installation.
type JavaDetector struct {
	runner runner.Runner
}

// NewJavaDetector creates a new Java detector
func NewJavaDetector(r runner.Runner) *JavaDetector {
	return &JavaDetector{runner: r}
}

var javaVersionRe = regexp.MustCompile(`version "([^"]+)"`)

// MajorVersion returns the major version of the java binary under
// javaHome, or on PATH when javaHome is empty. It returns 0 when Java is
// missing or the version cannot be parsed.
func (j *JavaDetector) MajorVersion(ctx context.Context, javaHome string) int {
	java := "java"
	if javaHome != "" {
		java = filepath.Join(javaHome, "bin", "java")
	}
	// java -version writes to stderr
	res, err := j.runner.Run(ctx, java, "-version")
	if err != nil || !res.Success() {
		return 0
	}
	return ParseJavaMajor(res.Output())
}

// ParseJavaMajor extracts the major version from `java -version` output:
//
//	openjdk version "11.0.22" 2024-01-16
//	java version "1.8.0_392"
func ParseJavaMajor(output string) int {
	matches := javaVersionRe.FindStringSubmatch(output)
	if len(matches) < 2 {
		return 0
	}
	parts := strings.Split(matches[1], ".")

	// "1.8" -> 8
	if parts[0] == "1" && len(parts) > 1 {
		major, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0
		}
		return major
	}

	// "17.0.9" -> 17, "21" -> 21
	major, err := strconv.Atoi(strings.SplitN(parts[0], "-", 2)[0])
	if err != nil {
		return 0
	}
	return major
}

// ToolDetector provides generic command detection
type ToolDetector struct {
	lookPath func(string) (string, error)
}

// NewToolDetector creates a new tool detector. A nil lookPath uses
// exec.LookPath.
func NewToolDetector(lookPath func(string) (string, error)) *ToolDetector {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	return &ToolDetector{lookPath: lookPath}
}

// IsInstalled checks if a command is available in PATH
func (t *ToolDetector) IsInstalled(command string) bool {
	_, err := t.lookPath(command)
	return err == nil
}

// DetectAll detects all necessary tools and returns their installation status
func (t *ToolDetector) DetectAll(tools []string) map[string]bool {
	results := make(map[string]bool)
	for _, tool := range tools {
		results[tool] = t.IsInstalled(tool)
	}
	return results
}

// FirstInstalled returns the first available command of alternatives, or
// the empty string.
func (t *ToolDetector) FirstInstalled(alternatives ...string) string {
	for _, cmd := range alternatives {
		if t.IsInstalled(cmd) {
			return cmd
		}
	}
	return ""
}
