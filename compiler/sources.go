package compiler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/0xmhha/matchstick-go/internal/constants"
)

// importPattern matches the path of relative imports such as
// `import { Gravatar } from '../generated/schema'`. Package imports like
// 'matchstick-as/assembly/index' are ignored.
var importPattern = regexp.MustCompile(`(?:from|import)\s*["'](\.{1,2}/[^"']*)["']`)

// Discover collects the test sources under folder, sorted by name. Every
// *.test.ts file is a source named after its lowercased path relative to
// folder; the .bin folder is skipped. When filters are given only sources
// whose path starts with one of folder/filter (case-insensitively) are kept.
func Discover(folder string, filters []string) ([]Source, error) {
	var sources []Source
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == constants.BinFolder {
				return filepath.SkipDir
			}
			return nil
		}

		lower := strings.ToLower(d.Name())
		if !strings.HasSuffix(lower, constants.TestFileSuffix) {
			return nil
		}

		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(strings.ToLower(filepath.ToSlash(rel)), constants.TestFileSuffix)
		sources = append(sources, Source{Name: name, Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not get tests from %s: %w", folder, err)
	}

	if len(sources) == 0 {
		return nil, ErrNoTests
	}

	if len(filters) > 0 {
		sources = filter(folder, sources, filters)
		if len(sources) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, strings.Join(filters, ","))
		}
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

func filter(folder string, sources []Source, filters []string) []Source {
	prefixes := make([]string, len(filters))
	for i, f := range filters {
		prefixes[i] = strings.ToLower(filepath.Join(folder, f))
	}

	var kept []Source
	for _, s := range sources {
		path := strings.ToLower(s.Path)
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				kept = append(kept, s)
				break
			}
		}
	}
	return kept
}

// IsSourceModified reports whether out is missing or older than in, than
// any relative .ts file in transitively imports, or than any of extra
func IsSourceModified(in, out string, extra []string) (bool, error) {
	outInfo, err := os.Stat(out)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to extract metadata from %s: %w", out, err)
	}
	built := outInfo.ModTime()

	modified, err := newerThan(in, built)
	if err != nil || modified {
		return modified, err
	}

	imports := make(map[string]bool)
	if err := collectImports(in, imports); err != nil {
		return false, err
	}
	for _, e := range extra {
		imports[e] = true
	}

	for path := range imports {
		modified, err := newerThan(path, built)
		if err != nil || modified {
			return modified, err
		}
	}
	return false, nil
}

func newerThan(path string, t time.Time) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to extract metadata from %s: %w", path, err)
	}
	return info.ModTime().After(t), nil
}

// Imports returns the absolute paths of the relative imports of file,
// followed transitively. A directory import contributes every file in it.
func Imports(file string) ([]string, error) {
	set := make(map[string]bool)
	if err := collectImports(file, set); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func collectImports(file string, imports map[string]bool) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	for _, m := range importPattern.FindAllStringSubmatch(string(data), -1) {
		path, ok := resolveImport(filepath.Dir(file), m[1])
		if !ok {
			continue
		}
		if err := handleImport(path, imports); err != nil {
			return err
		}
	}
	return nil
}

func handleImport(path string, imports map[string]bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return fmt.Errorf("could not read dir %s: %w", path, err)
		}
		for _, e := range entries {
			if err := handleImport(filepath.Join(path, e.Name()), imports); err != nil {
				return err
			}
		}
		return nil
	}

	if imports[path] {
		return nil
	}
	imports[path] = true
	if filepath.Ext(path) != ".ts" {
		return nil
	}
	return collectImports(path, imports)
}

// resolveImport resolves an import path against dir, first as written and
// then with a .ts extension
func resolveImport(dir, imported string) (string, bool) {
	base, err := filepath.Abs(filepath.Join(dir, imported))
	if err != nil {
		return "", false
	}
	for _, candidate := range []string{base, base + ".ts"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
