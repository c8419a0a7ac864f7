package utils

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

var (
	errOutsideRoot = fmt.Errorf("path escapes media root")
)

// ResourceID derives catalog id from a slash separated path relative to the media root
func ResourceID(rel string) string {
	rel = path.Clean(strings.TrimPrefix(filepath.ToSlash(rel), "/"))
	return strings.TrimSuffix(rel, path.Ext(rel))
}

// SafeJoin joins rel onto root and fails if the result is not inside root
func SafeJoin(root, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("%w: %q", errOutsideRoot, rel)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, full)
	if err != nil {
		return "", err
	}
	if r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", errOutsideRoot, rel)
	}
	return full, nil
}

// LocalResource returns url path of resource id under prefix
func LocalResource(prefix, id string) string {
	segments := strings.Split(id, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(prefix, "/") + "/" + strings.Join(segments, "/")
}
