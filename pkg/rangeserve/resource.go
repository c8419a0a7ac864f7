package rangeserve

import (
	"fmt"
	"os"
)

const DefaultMediaType = "video/mp4"

// Resource is a byte addressable file served by range
type Resource struct {
	Path      string
	MediaType string
}

// Size stats the file on every call, sizes are never cached
func (r Resource) Size() (int64, error) {
	info, err := os.Stat(r.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrResourceNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %q is not a regular file", ErrResourceNotFound, r.Path)
	}
	return info.Size(), nil
}

func (r Resource) contentType() string {
	if r.MediaType == "" {
		return DefaultMediaType
	}
	return r.MediaType
}
