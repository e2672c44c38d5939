// Package chunk implements the chunk iterator (C2): given an opened file
// and a chunk size, it produces a lazy, finite, non-restartable sequence
// of fixed-size byte buffers (the last of which may be shorter).
package chunk

import (
	"io"

	"github.com/pkg/errors"
)

// DefaultSize is the chunk size used when none is configured, matching
// the reference behavior (4 MiB).
const DefaultSize = 4 << 20

// Chunk is a contiguous byte range of a source file, identified by its
// offset within that file.
type Chunk struct {
	// Offset is the byte offset of this chunk within its source file.
	Offset int64
	// Data holds the chunk's bytes. The backing array is reused across
	// calls to Iterator.Next, so callers that retain it across calls must
	// copy it first.
	Data []byte
}

// Iterator produces the chunks of a single opened file, in ascending
// offset order, reading at most Size bytes per call to Next.
type Iterator struct {
	reader io.Reader
	size   int
	buffer []byte
	offset int64
	done   bool
}

// NewIterator creates an Iterator reading chunks of the given size from
// reader. A size of zero selects DefaultSize.
func NewIterator(reader io.Reader, size int) *Iterator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Iterator{
		reader: reader,
		size:   size,
		buffer: make([]byte, size),
	}
}

// Next returns the next chunk in the sequence, or io.EOF once the
// sequence is exhausted (including immediately, for an empty file).
// Partial reads at end-of-file are coalesced into a single final chunk
// in [1, size] bytes; any other read error is returned as-is (wrapped).
func (it *Iterator) Next() (Chunk, error) {
	if it.done {
		return Chunk{}, io.EOF
	}

	n, err := io.ReadFull(it.reader, it.buffer)
	switch {
	case err == nil:
		// A full-size chunk; there may be more to come.
	case errors.Is(err, io.ErrUnexpectedEOF):
		// A short final chunk.
		it.done = true
	case errors.Is(err, io.EOF):
		// Nothing left at all; this call produces no chunk.
		it.done = true
		return Chunk{}, io.EOF
	default:
		it.done = true
		return Chunk{}, errors.Wrap(err, "unable to read chunk")
	}

	chunk := Chunk{Offset: it.offset, Data: it.buffer[:n]}
	it.offset += int64(n)
	return chunk, nil
}
