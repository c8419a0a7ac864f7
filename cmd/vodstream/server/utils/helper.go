package utils

import (
	"os"
	"path"
	"path/filepath"
)

func SelfDir() (string, error) {
	ex, err := os.Executable()
	if err != nil {
		return "", err
	}
	return path.Dir(ex), nil
}

// AbsFrom resolves p against base when p is relative
func AbsFrom(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
