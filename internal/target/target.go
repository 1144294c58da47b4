// Package target resolves target prefixes to the host folders found under the
// log root and locates each folder's daily CSV export.
package target

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoPrefixes is returned when neither the caller nor the config names a target.
var ErrNoPrefixes = errors.New("no target prefixes given on the command line or in config")

// NoMatchError reports a prefix that matched no folder under the log root.
type NoMatchError struct {
	Prefix  string
	LogRoot string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no folder starting with target prefix %q was found in %s", e.Prefix, e.LogRoot)
}

// ResolvePrefixes returns the comma separated prefixes in token, falling back
// to configured when token is empty. fromToken reports which source was used.
// Repeated prefixes are kept once, in first-seen order.
func ResolvePrefixes(token string, configured []string) (prefixes []string, fromToken bool, err error) {
	if token != "" {
		prefixes = uniqueNonEmpty(strings.Split(token, ","))
		fromToken = true
	} else {
		prefixes = uniqueNonEmpty(configured)
	}

	if len(prefixes) == 0 {
		return nil, fromToken, ErrNoPrefixes
	}
	return prefixes, fromToken, nil
}

// Expand lists the folders directly under logRoot and keeps those whose name
// starts with at least one prefix. Each folder appears once, in directory
// order. Every prefix must match at least one folder.
func Expand(prefixes []string, logRoot string) ([]string, error) {
	entries, err := os.ReadDir(logRoot)
	if err != nil {
		return nil, fmt.Errorf("read log root: %w", err)
	}

	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}

	for _, p := range prefixes {
		if !anyHasPrefix(folders, p) {
			return nil, &NoMatchError{Prefix: p, LogRoot: logRoot}
		}
	}

	var out []string
	for _, name := range folders {
		if MatchesAny(name, prefixes) {
			out = append(out, name)
		}
	}
	return out, nil
}

// MatchesAny reports whether name starts with one of prefixes.
func MatchesAny(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func anyHasPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func uniqueNonEmpty(parts []string) []string {
	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
