package cachestore

import "time"

// ModTime is a file modification time recorded to full seconds+nanoseconds
// precision, avoiding any dependency on a particular wire timestamp type.
type ModTime struct {
	Seconds int64 `json:"s"`
	Nanos   int32 `json:"n"`
}

// ModTimeFrom converts a time.Time to the cache's on-disk representation.
func ModTimeFrom(t time.Time) ModTime {
	return ModTime{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// Time converts back to a time.Time (UTC, since only the instant matters
// for equality comparisons).
func (m ModTime) Time() time.Time {
	return time.Unix(m.Seconds, int64(m.Nanos)).UTC()
}

// Equal reports whether two mod-times refer to the same instant at full
// recorded precision.
func (m ModTime) Equal(other ModTime) bool {
	return m.Seconds == other.Seconds && m.Nanos == other.Nanos
}

// FileRecord is the cache's unit of record: the chunk digests that
// reconstruct one source file, keyed (by the caller) to a path relative
// to the source root.
type FileRecord struct {
	// Size is the file's length in bytes at the time it was last hashed.
	Size int64 `json:"s"`
	// ModTime is the file's modification time at the time it was last
	// hashed.
	ModTime ModTime `json:"m"`
	// Chunks is the ordered list of chunk digests that reconstruct the
	// file when concatenated.
	Chunks []string `json:"c"`
	// ChunkSize is the chunk size used to produce Chunks, in bytes. It is
	// omitted when the default chunk size was used, so that cache files
	// written before this field existed remain byte-compatible.
	ChunkSize int `json:"z,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *FileRecord) Clone() *FileRecord {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Chunks = append([]string(nil), r.Chunks...)
	return &clone
}

// Unchanged reports whether a file with the given size and modification
// time would be considered identical to the one that produced r (the
// skip-rehash rule: equal size and equal modtime to full precision).
func (r *FileRecord) Unchanged(size int64, modTime ModTime) bool {
	return r != nil && r.Size == size && r.ModTime.Equal(modTime)
}

// Equal reports whether two records describe the same file contents
// (same size, modtime, and chunk list). ChunkSize is not compared
// directly: two records with identical chunk lists reconstruct identical
// bytes regardless of what chunk size produced them.
func (r *FileRecord) Equal(other *FileRecord) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Size != other.Size || !r.ModTime.Equal(other.ModTime) {
		return false
	}
	if len(r.Chunks) != len(other.Chunks) {
		return false
	}
	for i, digest := range r.Chunks {
		if other.Chunks[i] != digest {
			return false
		}
	}
	return true
}
