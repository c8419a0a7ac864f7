package pkg

import "time"

type MetaPrefix = byte

const (
	dbEntryPrefix MetaPrefix = 'e'
	dbMetaPrefix  MetaPrefix = 'm'
)

const metaKey = "catalog"

const schemaVersion = 1

// Meta is stored once per catalog
type Meta struct {
	Version  int       `json:"version"`
	LastScan time.Time `json:"lastScan"`
}
