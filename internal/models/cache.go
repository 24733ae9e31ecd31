// Package models defines the data records persisted by the local store and
// the transient values exchanged with the upload layer.
package models

import "encoding/json"

// CacheEntry is one row of the local cache: an opaque JSON value addressed
// by key. A write fully replaces the prior value and timestamp.
type CacheEntry struct {
	// Key is the unique identity of the entry.
	Key string

	// Value is the stored JSON document. Nil means a null value (either the
	// caller stored null, or the stored bytes could not be decoded).
	Value json.RawMessage

	// UpdatedAt is the UnixMilli timestamp of the last write.
	UpdatedAt int64
}
