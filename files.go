package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// expandFileArgs turns command-line arguments into absolute file paths.
// Arguments with glob metacharacters are expanded with doublestar; a pattern
// that matches nothing, or is not a valid pattern, is kept as a literal path
// so the missing file shows up as a per-file failure. Duplicates keep their
// first position.
func expandFileArgs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	files := make([]string, 0, len(args))

	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for %s: %w", path, err)
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
		return nil
	}

	for _, arg := range args {
		if !hasGlobMeta(arg) {
			if err := add(arg); err != nil {
				return nil, err
			}
			continue
		}

		hits, err := doublestar.FilepathGlob(arg)
		if errors.Is(err, doublestar.ErrBadPattern) {
			// Not a usable pattern: treat it as a file name like any other
			if err := add(arg); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("expand file glob %q: %w", arg, err)
		}

		matched := make([]string, 0, len(hits))
		for _, hit := range hits {
			if isRegularFile(hit) {
				matched = append(matched, hit)
			}
		}
		if len(matched) == 0 {
			matched = append(matched, arg)
		}
		sort.Strings(matched)

		for _, hit := range matched {
			if err := add(hit); err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// matchExclude reports the first exclude pattern matching file. Patterns are
// matched against the slash-separated path relative to workDir.
func matchExclude(patterns []string, workDir, file string) (string, bool) {
	if len(patterns) == 0 {
		return "", false
	}

	rel, err := filepath.Rel(workDir, file)
	if err != nil {
		rel = file
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range patterns {
		// Patterns are validated when the config is loaded
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return pattern, true
		}
	}

	return "", false
}
