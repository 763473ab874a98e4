package script

import (
	"embed"
	"path/filepath"
	"strings"
)

//go:embed scripts/*.tengo
var scriptsFS embed.FS

// Load returns an embedded controller script by name.
func Load(name string) ([]byte, error) {
	return scriptsFS.ReadFile(cleanScriptPath(name))
}

// List returns the embedded script names, without extension.
func List() []string {
	entries, err := scriptsFS.ReadDir("scripts")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	return names
}

func cleanScriptPath(name string) string {
	s := filepath.ToSlash(name)
	s = strings.TrimPrefix(s, "scripts/")
	if filepath.Ext(s) == "" {
		s += ".tengo"
	}
	return "scripts/" + s
}
