package rangeserve

import (
	"fmt"
)

// DefaultMaxChunkBytes is the span served for an open-ended range
const DefaultMaxChunkBytes int64 = 1_000_000

// ChunkPolicy bounds the size of a single response
type ChunkPolicy struct {
	MaxChunkBytes int64
	// CapExplicit applies MaxChunkBytes to `start-end` ranges as well
	CapExplicit bool
}

// DefaultChunkPolicy returns policy with DefaultMaxChunkBytes
func DefaultChunkPolicy() ChunkPolicy {
	return ChunkPolicy{MaxChunkBytes: DefaultMaxChunkBytes}
}

// Valid check if policy could be used for resolving
func (p ChunkPolicy) Valid() error {
	if p.MaxChunkBytes <= 0 {
		return fmt.Errorf("invalid max chunk bytes %d", p.MaxChunkBytes)
	}
	return nil
}

// Window is a resolved inclusive byte span, 0 <= Start <= End <= Size-1
type Window struct {
	Start int64
	End   int64
	Size  int64
}

// Length is the body size in bytes
func (w Window) Length() int64 {
	return w.End - w.Start + 1
}

// ContentRange formats value of Content-Range header
func (w Window) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", w.Start, w.End, w.Size)
}

// UnsatisfiedContentRange formats Content-Range header for a 416 response
func UnsatisfiedContentRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// Resolve clamps the candidate to the resource size and chunk policy
func Resolve(c Candidate, size int64, policy ChunkPolicy) (Window, error) {
	if err := policy.Valid(); err != nil {
		return Window{}, err
	}
	if size <= 0 || c.Start < 0 || c.Start >= size {
		return Window{}, &NotSatisfiableError{Start: c.Start, Size: size}
	}

	last := size - 1
	// overflow safe form of start+max-1
	chunkEnd := last
	if last-c.Start >= policy.MaxChunkBytes {
		chunkEnd = c.Start + policy.MaxChunkBytes - 1
	}

	end := chunkEnd
	if !c.OpenEnded {
		end = min64(c.End, last)
		if policy.CapExplicit {
			end = min64(end, chunkEnd)
		}
	}
	if end < c.Start {
		return Window{}, &NotSatisfiableError{Start: c.Start, Size: size}
	}

	return Window{Start: c.Start, End: end, Size: size}, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
