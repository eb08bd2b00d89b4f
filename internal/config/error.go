package config

import (
	"fmt"
	"slices"
	"strings"
)

// sectionOrder follows the layout of default_config.toml.
var sectionOrder = []string{"server", "database", "posters", "sync", "log"}

// ConfigError reports every problem found while loading a config file.
type ConfigError struct {
	Path    string
	Missing []string // ${VAR} references with no value in the environment
	Errors  []string // "section.key: message" entries from Validate
}

func (e *ConfigError) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var b strings.Builder
	if e.Path != "" {
		fmt.Fprintf(&b, "config %s:", e.Path)
	} else {
		b.WriteString("config:")
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "\n  missing environment variables: %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Errors) > 0 {
		b.WriteString("\n  validation failed:")
		sections := e.Sections()
		for _, name := range sortedSections(sections) {
			fmt.Fprintf(&b, "\n    [%s]", name)
			for _, msg := range sections[name] {
				fmt.Fprintf(&b, "\n      %s", msg)
			}
		}
	}
	return b.String()
}

// HasErrors reports whether anything was recorded.
func (e *ConfigError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}

// Sections groups validation errors by TOML section, with the section
// prefix stripped from each message.
func (e *ConfigError) Sections() map[string][]string {
	out := make(map[string][]string)
	for _, msg := range e.Errors {
		section, rest := "general", msg
		if key, tail, ok := strings.Cut(msg, ": "); ok {
			if s, field, ok := strings.Cut(key, "."); ok {
				section, rest = s, field+": "+tail
			}
		}
		out[section] = append(out[section], rest)
	}
	return out
}

func sortedSections(sections map[string][]string) []string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		ia, ib := slices.Index(sectionOrder, a), slices.Index(sectionOrder, b)
		if ia == -1 {
			ia = len(sectionOrder)
		}
		if ib == -1 {
			ib = len(sectionOrder)
		}
		if ia != ib {
			return ia - ib
		}
		return strings.Compare(a, b)
	})
	return names
}
