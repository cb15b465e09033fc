package discovery

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const (
	// ModuleList is the manifest naming every discoverable interface.
	ModuleList = "META-INF/rapla/modules"

	// ServicesDir holds one manifest per interface, named after the role.
	ServicesDir = "META-INF/services"
)

// ReadModuleList merges the module lists of all sources. The result is
// de-duplicated and sorted; blank lines are dropped.
func ReadModuleList(sources ...fs.FS) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, fsys := range sources {
		lines, err := readLines(fsys, ModuleList)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if line == "" || seen[line] {
				continue
			}
			seen[line] = true
			out = append(out, line)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ManifestPath returns the services manifest path of role.
func ManifestPath(role string) string {
	return path.Join(ServicesDir, role)
}

// ReadManifest merges the services manifests of role across sources in
// first-seen order, dropping repeated names. Blank lines are kept once so the
// caller can report them.
func ReadManifest(role string, sources ...fs.FS) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, fsys := range sources {
		lines, err := readLines(fsys, ManifestPath(role))
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if seen[line] {
				continue
			}
			seen[line] = true
			out = append(out, line)
		}
	}
	return out, nil
}

// readLines returns the trimmed lines of name. A missing file yields no lines.
func readLines(fsys fs.FS, name string) ([]string, error) {
	f, err := fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return lines, nil
}
