package schema

// EnvConfig represents the shell environment files sourced by the vendored
// scripts and by the user's login shell.
type EnvConfig struct {
	Hadoop []Property // hadoop-env.sh
	Spark  []Property // spark-env.sh
	Hive   []Property // hive-env.sh
	User   []Property // ~/.bigdata_env
	// PathDirs are prepended to PATH in the user env file (templated).
	PathDirs []string
}

// Clone creates a deep copy
func (c *EnvConfig) Clone() *EnvConfig {
	if c == nil {
		return nil
	}
	return &EnvConfig{
		Hadoop:   append([]Property{}, c.Hadoop...),
		Spark:    append([]Property{}, c.Spark...),
		Hive:     append([]Property{}, c.Hive...),
		User:     append([]Property{}, c.User...),
		PathDirs: append([]string{}, c.PathDirs...),
	}
}

// EnvMap substitutes every value and returns the variables as a map.
func EnvMap(props []Property, ctx *TemplateContext) map[string]string {
	m := make(map[string]string, len(props))
	for _, p := range props {
		m[p.Name] = ctx.Substitute(p.Value)
	}
	return m
}

// ExpandDirs substitutes every directory.
func ExpandDirs(dirs []string, ctx *TemplateContext) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, ctx.Substitute(d))
	}
	return out
}
