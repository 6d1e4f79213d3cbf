// Copyright © 2024 The ELPS authors

package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/gobwas/glob"
)

// DefaultInclude matches Python sources and stubs.
const DefaultInclude = `\.pyi?$`

// DefaultExclude skips tool and build directories.
const DefaultExclude = `(\.eggs|\.git|\.hg|\.mypy_cache|\.nox|\.tox|\.venv|\.svn|_build|buck-out|build|dist)`

// ErrNoFiles is returned by Find when nothing is left to check.
var ErrNoFiles = errors.New("no files specified")

// Filter decides which paths are checked. Include only applies to files
// found by walking directories; the exclusions apply to every path.
type Filter struct {
	Include       *regexp.Regexp
	Exclude       *regexp.Regexp
	ExtendExclude []glob.Glob
}

// NewFilter compiles a filter. Empty include or exclude patterns disable
// that check. extendExclude holds glob patterns matched against the slash
// separated path and its base name.
func NewFilter(include, exclude string, extendExclude []string) (Filter, error) {
	var f Filter
	var err error
	if include != "" {
		if f.Include, err = regexp.Compile(include); err != nil {
			return Filter{}, fmt.Errorf("invalid include pattern: %w", err)
		}
	}
	if exclude != "" {
		if f.Exclude, err = regexp.Compile(exclude); err != nil {
			return Filter{}, fmt.Errorf("invalid exclude pattern: %w", err)
		}
	}
	for _, pattern := range extendExclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return Filter{}, fmt.Errorf("invalid extend-exclude glob %q: %w", pattern, err)
		}
		f.ExtendExclude = append(f.ExtendExclude, g)
	}
	return f, nil
}

// Included reports whether a walked file should be checked.
func (f Filter) Included(path string) bool {
	return f.Include == nil || f.Include.MatchString(path)
}

// Excluded reports whether path matches an exclusion.
func (f Filter) Excluded(path string) bool {
	if f.Exclude != nil && f.Exclude.MatchString(path) {
		return true
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range f.ExtendExclude {
		if g.Match(slashed) || g.Match(base) {
			return true
		}
	}
	return false
}

// Find expands paths into the sorted set of files to check. Directories
// are walked recursively; excluded directories are not entered. A path
// that does not exist is an error.
func Find(paths []string, f Filter) ([]string, error) {
	seen := make(map[string]bool)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", p, err)
		}
		if !info.IsDir() {
			if !f.Excluded(p) {
				seen[p] = true
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && f.Excluded(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if f.Included(path) && !f.Excluded(path) {
				seen[path] = true
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	if len(seen) == 0 {
		return nil, ErrNoFiles
	}
	files := make([]string, 0, len(seen))
	for path := range seen {
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}
