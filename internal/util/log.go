package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ANSI color codes
const (
	Reset    = "\033[0m"
	Bold     = "\033[1m"
	Dim      = "\033[2m"
	Red      = "\033[31m"
	Green    = "\033[32m"
	Yellow   = "\033[33m"
	Cyan     = "\033[36m"
	BoldRed  = "\033[1;31m"
	BoldCyan = "\033[1;36m"
)

var (
	// Stderr receives progress, warnings and errors. Tests may swap it.
	Stderr io.Writer = os.Stderr
	// Stdout receives section headers and tables.
	Stdout io.Writer = os.Stdout
)

// IsInteractive reports whether stdin is attached to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ttyColor reports once per file whether it is a terminal that may be
// colored. NO_COLOR turns color off everywhere.
func ttyColor(f *os.File) func() bool {
	return sync.OnceValue(func() bool {
		return os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(f.Fd()))
	})
}

var (
	stderrTTY = ttyColor(os.Stderr)
	stdoutTTY = ttyColor(os.Stdout)
)

// paint colors msg only when w is the real terminal stream.
func paint(w io.Writer, c, msg string) string {
	switch {
	case c == "":
		return msg
	case w == io.Writer(os.Stderr) && stderrTTY():
	case w == io.Writer(os.Stdout) && stdoutTTY():
	default:
		return msg
	}
	return c + msg + Reset
}

// line is one kind of console message: a mark followed by the text.
type line struct {
	mark      string
	markColor string
	textColor string
}

var (
	logLine     = line{"==>", BoldCyan, ""}
	successLine = line{"==>", Green, Green}
	skipLine    = line{"--", Dim, Dim}
	warnLine    = line{"WARN:", Yellow, Yellow}
	errorLine   = line{"ERROR:", BoldRed, BoldRed}
)

func (l line) print(msg string, args []interface{}) {
	text := fmt.Sprintf(msg, args...)
	fmt.Fprintf(Stderr, "%s %s\n", paint(Stderr, l.markColor, l.mark), paint(Stderr, l.textColor, text))
}

// Log prints progress.
func Log(msg string, args ...interface{}) { logLine.print(msg, args) }

// Success prints a completed action.
func Success(msg string, args ...interface{}) { successLine.print(msg, args) }

// Skip prints work that was already done.
func Skip(msg string, args ...interface{}) { skipLine.print(msg, args) }

func Warn(msg string, args ...interface{}) { warnLine.print(msg, args) }

// Error prints an error without exiting.
func Error(msg string, args ...interface{}) { errorLine.print(msg, args) }

// Hint prints a follow-up line indented under an error or warning.
func Hint(msg string, args ...interface{}) {
	fmt.Fprintf(Stderr, "%s%s\n", strings.Repeat(" ", len(errorLine.mark)+1), fmt.Sprintf(msg, args...))
}

// Section prints a bold header such as "==> hdfs" to stdout.
func Section(msg string, args ...interface{}) {
	fmt.Fprintln(Stdout, paint(Stdout, Bold, "==> "+fmt.Sprintf(msg, args...)))
}

// Colorf formats a string in color c for stdout.
func Colorf(c, format string, args ...interface{}) string {
	return paint(Stdout, c, fmt.Sprintf(format, args...))
}

// StatusTableRow is one service or check in a StatusTable.
type StatusTableRow struct {
	Name   string
	Status string
	Detail string // pid, port or the failing check
	Ok     bool
}

// StatusTable prints rows aligned on their uncolored width, with the
// status column green for Ok rows and red otherwise.
func StatusTable(rows []StatusTableRow) {
	var nameW, statusW int
	for _, r := range rows {
		nameW = max(nameW, len(r.Name))
		statusW = max(statusW, len(r.Status))
	}

	for _, r := range rows {
		c := Red
		if r.Ok {
			c = Green
		}
		status := paint(Stdout, c, fmt.Sprintf("%-*s", statusW, r.Status))
		detail := r.Detail
		if detail != "" {
			detail = paint(Stdout, Dim, detail)
		}
		fmt.Fprintf(Stdout, "  %-*s  %s  %s\n", nameW, r.Name, status, detail)
	}
}
