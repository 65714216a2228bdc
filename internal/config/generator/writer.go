package generator

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/magiconair/properties"
	"github.com/otiai10/copy"

	"github.com/danieljhkim/bigdata-wsl/internal/config/schema"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// RenderHadoopXML serializes properties as a Hadoop <configuration> document.
func RenderHadoopXML(props []schema.Property) ([]byte, error) {
	site := &util.SiteXML{}
	for _, p := range props {
		site.Set(p.Name, p.Value)
	}
	return site.Encode()
}

// RenderProperties serializes properties in java.util.Properties format,
// keeping their order.
func RenderProperties(props []schema.Property, title string) ([]byte, error) {
	p := properties.NewProperties()
	p.DisableExpansion = true
	for _, prop := range props {
		if _, _, err := p.Set(prop.Name, prop.Value); err != nil {
			return nil, fmt.Errorf("property %s: %w", prop.Name, err)
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s configuration generated by bigdata\n", title)
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderEnvExports serializes vars as sorted `export KEY="value"` lines,
// followed by a PATH export when pathDirs is not empty. Values containing
// '!' are single-quoted since bash keeps a backslash before it inside
// double quotes. Multi-line values are rejected.
func RenderEnvExports(vars map[string]string, pathDirs []string) ([]byte, error) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		v := vars[k]
		if strings.ContainsAny(v, "\n\r") {
			return nil, fmt.Errorf("environment variable %s: value spans multiple lines", k)
		}
		if strings.Contains(v, "!") {
			buf.WriteString("export " + k + "=" + util.ShellQuote(v) + "\n")
			continue
		}
		line, err := godotenv.Marshal(map[string]string{k: v})
		if err != nil {
			return nil, err
		}
		buf.WriteString("export " + line + "\n")
	}
	if len(pathDirs) > 0 {
		buf.WriteString(util.PathExportLine(pathDirs) + "\n")
	}
	return buf.Bytes(), nil
}

// Desired returns the full content f would leave at its path given the
// current content of that path.
func (f File) Desired(current []byte) []byte {
	if f.Block == "" {
		return f.Content
	}
	return []byte(util.ReplaceManagedBlock(string(current), f.Block, string(f.Content)))
}

// WriteFiles writes every file atomically. Distribution conf dirs are
// preserved once as <dir>.dist before their first overwrite. Returns the
// paths whose content changed.
func WriteFiles(files []File) ([]string, error) {
	backedUp := make(map[string]bool)
	var changed []string

	for _, f := range files {
		if f.DistDir != "" && !backedUp[f.DistDir] {
			if err := PreserveDist(f.DistDir); err != nil {
				return changed, err
			}
			backedUp[f.DistDir] = true
		}

		if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			return changed, fmt.Errorf("failed to create %s: %w", filepath.Dir(f.Path), err)
		}

		current, err := os.ReadFile(f.Path)
		if err != nil && !os.IsNotExist(err) {
			return changed, fmt.Errorf("failed to read %s: %w", f.Path, err)
		}
		desired := f.Desired(current)
		if err == nil && bytes.Equal(current, desired) {
			// Still tighten permissions, e.g. a secret file created earlier as 0644.
			if err := os.Chmod(f.Path, f.Mode); err != nil {
				return changed, err
			}
			continue
		}
		if err := util.WriteFileAtomic(f.Path, desired, f.Mode); err != nil {
			return changed, err
		}
		changed = append(changed, f.Path)
	}
	return changed, nil
}

// PreserveDist copies dir to dir.dist unless that copy already exists or
// dir does not exist yet. The copy is staged beside dist and renamed into
// place, so an interrupted copy never counts as preserved.
func PreserveDist(dir string) error {
	dist := DistDir(dir)
	if util.DirExists(dist) || !util.DirExists(dir) {
		return nil
	}
	staging := dist + ".tmp"
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("failed to clear %s: %w", staging, err)
	}
	if err := copy.Copy(dir, staging); err != nil {
		os.RemoveAll(staging)
		return fmt.Errorf("failed to preserve %s: %w", dir, err)
	}
	if err := os.Rename(staging, dist); err != nil {
		os.RemoveAll(staging)
		return fmt.Errorf("failed to preserve %s: %w", dir, err)
	}
	return nil
}

// DistDir returns the pristine copy location of a distribution conf dir.
func DistDir(dir string) string {
	return filepath.Clean(dir) + ".dist"
}

// Paths returns the sorted paths of files.
func Paths(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	sort.Strings(out)
	return out
}
