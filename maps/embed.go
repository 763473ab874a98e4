package maps

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed *.yaml
var mapsFS embed.FS

// Load returns the raw spec bytes for name. A file under maps/ on disk
// overrides the embedded copy so maps can be edited without rebuilding.
func Load(name string) ([]byte, error) {
	clean := cleanMapPath(name)
	if data, err := os.ReadFile(diskMapPath(clean)); err == nil {
		return data, nil
	}
	return mapsFS.ReadFile(clean)
}

// LoadSpec loads and parses the named map.
func LoadSpec(name string) (*Spec, error) {
	data, err := Load(name)
	if err != nil {
		return nil, fmt.Errorf("maps: load %q: %w", name, err)
	}
	return Parse(data)
}

// List returns the embedded map names (without extension), sorted.
func List() []string {
	entries, err := mapsFS.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

func cleanMapPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	s = strings.TrimPrefix(s, "maps/")
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return s
}

func diskMapPath(clean string) string {
	return filepath.Join("maps", filepath.FromSlash(clean))
}
