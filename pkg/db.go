package pkg

import (
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("entry not found")
	ErrEmptyID  = errors.New("empty entry id")
	ErrDBClosed = errors.New("catalog closed")
)

// Entry maps a resource id to a file below the media root
type Entry struct {
	ID string `bson:"_id" json:"id"`
	// slash separated path relative to the media root
	Path string `bson:"path" json:"path"`
	// mime type: https://developer.mozilla.org/en-US/docs/Web/HTTP/Basics_of_HTTP/MIME_types
	Mime    string    `bson:"mime" json:"mime"`
	ModTime time.Time `bson:"modTime" json:"modTime"`
	// last time the scanner saw the file
	ScannedAt time.Time `bson:"scannedAt" json:"scannedAt"`
}

// DB is the resource catalog
type DB interface {
	// Put creates or replaces entry by its id
	Put(e *Entry) error
	// Get returns ErrNotFound for unknown id
	Get(id string) (*Entry, error)
	Exists(id string) (bool, error)
	Delete(id string) error
	// Find returns iterator over all entries ordered by id
	Find() (Iterator, error)
	// Range returns at most limit entries after skipping offset, all for limit <= 0
	Range(offset, limit int) ([]*Entry, error)
	Count() (int, error)

	// Meta returns catalog level info
	Meta() (*Meta, error)
	// SetLastScan records finish time of a library scan
	SetLastScan(tm time.Time) error

	// Compact do flush and compaction on db
	Compact() error
	// Close release db lock, calls after it return ErrDBClosed
	Close() error
}

type Iterator interface {
	Next() bool
	Key() string
	Value() (*Entry, error)
	Release() error
}
