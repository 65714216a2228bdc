package generator

import (
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// FileDiff is the difference between an installed file and its rendering.
type FileDiff struct {
	Path    string
	Missing bool   // the file does not exist yet
	Text    string // line diff, "-" for installed lines, "+" for rendered lines
}

// Diff compares every rendered file with what is installed and returns the
// files that would change.
func Diff(files []File) ([]FileDiff, error) {
	var diffs []FileDiff
	for _, f := range files {
		current, err := os.ReadFile(f.Path)
		missing := os.IsNotExist(err)
		if err != nil && !missing {
			return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
		}

		desired := string(f.Desired(current))
		if !missing && desired == string(current) {
			continue
		}
		diffs = append(diffs, FileDiff{
			Path:    f.Path,
			Missing: missing,
			Text:    LineDiff(string(current), desired),
		})
	}
	return diffs, nil
}

// LineDiff renders a line-oriented diff of two texts. Unchanged lines are
// prefixed with two spaces.
func LineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix + strings.TrimSuffix(line, "\n") + "\n")
		}
	}
	return sb.String()
}
