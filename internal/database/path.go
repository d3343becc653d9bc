package database

import (
	"fmt"
	"strings"

	ierr "go-shopfeed/internal/errors"
)

// SplitPath validates a '/' separated path and returns its segments. Leading
// and trailing slashes are ignored; empty segments and characters that are
// not allowed in realtime database keys are rejected.
func SplitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %q", ierr.InvalidPath, path)
	}

	segs := strings.Split(trimmed, "/")
	for _, s := range segs {
		if s == "" || strings.ContainsAny(s, ".#$[]") {
			return nil, fmt.Errorf("%w: %q", ierr.InvalidPath, path)
		}
	}
	return segs, nil
}

// IsKey reports whether key can be used as exactly one path segment.
func IsKey(key string) bool {
	segs, err := SplitPath(key)
	return err == nil && len(segs) == 1 && segs[0] == key
}

func JoinPath(segs ...string) string {
	return strings.Join(segs, "/")
}

// overlaps reports whether a change at one path is visible from the other,
// i.e. one is an ancestor of (or equal to) the other.
func overlaps(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
