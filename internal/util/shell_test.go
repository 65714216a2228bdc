package util

import "testing"

func TestDeduplicatePath(t *testing.T) {
	tests := []struct {
		name string
		dirs []string
		path string
		want string
	}{
		{"prepends", []string{"/opt/hadoop/bin", "/opt/spark/bin"}, "/usr/bin:/bin", "/opt/hadoop/bin:/opt/spark/bin:/usr/bin:/bin"},
		{"drops repeats of managed dirs", []string{"/opt/hadoop/bin"}, "/usr/bin:/opt/hadoop/bin:/bin", "/opt/hadoop/bin:/usr/bin:/bin"},
		{"drops blanks", []string{" ", "/opt/kafka/bin"}, "::/usr/bin:", "/opt/kafka/bin:/usr/bin"},
		{"empty path", []string{"/opt/pig/bin"}, "", "/opt/pig/bin"},
		{"no dirs", nil, "/usr/bin:/usr/bin", "/usr/bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeduplicatePath(tt.dirs, tt.path); got != tt.want {
				t.Errorf("DeduplicatePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeduplicatePath_DoesNotMutateDirs(t *testing.T) {
	dirs := []string{"/a", "/a", "/b"}
	DeduplicatePath(dirs, "/c")
	if dirs[1] != "/a" || dirs[2] != "/b" {
		t.Errorf("dirs modified: %v", dirs)
	}
}

func TestShellEscaping(t *testing.T) {
	tests := []struct {
		in         string
		wantQuote  string
		wantEscape string
	}{
		{"/home/dev/bigdata", "'/home/dev/bigdata'", "/home/dev/bigdata"},
		{"-Xmx1g -Xms1g", "'-Xmx1g -Xms1g'", "'-Xmx1g -Xms1g'"},
		{"it's", `'it'\''s'`, `'it'\''s'`},
		{"a$b", "'a$b'", "'a$b'"},
		{"", "''", "''"},
		{"'x'", `''\''x'\'''`, `''\''x'\'''`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ShellQuote(tt.in); got != tt.wantQuote {
				t.Errorf("ShellQuote(%q) = %s, want %s", tt.in, got, tt.wantQuote)
			}
			if got := ShellEscape(tt.in); got != tt.wantEscape {
				t.Errorf("ShellEscape(%q) = %s, want %s", tt.in, got, tt.wantEscape)
			}
		})
	}
}

func TestExportLines(t *testing.T) {
	if got, want := ExportLine("SPARK_HOME", "/opt/spark"), "export SPARK_HOME=/opt/spark"; got != want {
		t.Errorf("ExportLine() = %q, want %q", got, want)
	}
	if got, want := ExportLine("HADOOP_OPTS", "-Djava.net.preferIPv4Stack=true -Dx=1"), "export HADOOP_OPTS='-Djava.net.preferIPv4Stack=true -Dx=1'"; got != want {
		t.Errorf("ExportLine() = %q, want %q", got, want)
	}
	if got, want := PathExportLine([]string{"/opt/hadoop/bin", "/opt/hadoop/sbin"}), `export PATH='/opt/hadoop/bin:/opt/hadoop/sbin':"$PATH"`; got != want {
		t.Errorf("PathExportLine() = %q, want %q", got, want)
	}
}
