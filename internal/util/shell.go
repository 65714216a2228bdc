package util

import "strings"

// DeduplicatePath puts dirs ahead of the colon separated path, keeping the
// first occurrence of every entry and dropping blanks.
func DeduplicatePath(dirs []string, path string) string {
	entries := append(append([]string{}, dirs...), strings.Split(path, ":")...)
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return strings.Join(out, ":")
}

// ShellQuote single-quotes s for POSIX shells. A single quote inside s is
// written as '\''.
func ShellQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			b.WriteString(`'\''`)
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}

// shellSpecial lists the characters that make the shell split, glob or
// expand a word.
const shellSpecial = " \t\n\"'$\\`|&;()<>*?[]#~!{}"

// ShellEscape leaves safe words alone and quotes everything else,
// including the empty string.
func ShellEscape(s string) string {
	if s != "" && !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	return ShellQuote(s)
}

// ExportLine renders `export NAME=value`.
func ExportLine(name, value string) string {
	return "export " + name + "=" + ShellEscape(value)
}

// PathExportLine prepends dirs to PATH as it is when the file is sourced.
func PathExportLine(dirs []string) string {
	return `export PATH=` + ShellQuote(strings.Join(dirs, ":")) + `:"$PATH"`
}
