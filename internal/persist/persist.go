// Package persist implements the atomic persister (C8): a pure mechanism
// for writing a serialized byte stream to disk via a temp-file-plus-
// rename dance, with compression selected from the target path's
// filename suffix. A crash before the rename always leaves the previous
// file (if any) intact.
package persist

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/dedupstore/dedupstore/internal/logging"
	"github.com/dedupstore/dedupstore/internal/must"
)

// zstdSuffix is the filename suffix that selects Zstandard compression
// for a persisted file. Any other suffix selects plain encoding.
const zstdSuffix = ".zst"

// IsCompressed reports whether path's suffix selects Zstandard
// compression.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, zstdSuffix)
}

// WriteAtomic compresses data (if path's suffix calls for it) and writes
// it to path by way of a sibling temporary file that is fsync'd and then
// renamed into place. The rename is what makes the write atomic: readers
// either see the old complete file or the new complete file, never a
// partial one.
func WriteAtomic(path string, data []byte, logger *logging.Logger) error {
	payload := data
	if IsCompressed(path) {
		compressed, err := compress(data)
		if err != nil {
			return errors.Wrap(err, "unable to compress data")
		}
		payload = compressed
	}

	directory := filepath.Dir(path)
	temporary, err := os.CreateTemp(directory, ".dedupstore-tmp-"+uuid.NewString()+"-")
	if err != nil {
		return errors.Wrap(err, "unable to create temporary file")
	}
	temporaryPath := temporary.Name()

	if _, err := temporary.Write(payload); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporaryPath, logger)
		return errors.Wrap(err, "unable to write temporary file")
	}

	// Best-effort fsync: some filesystems or platforms don't support it
	// on every file type, and failing the write over it would be worse
	// than the (small) durability gap it leaves.
	if err := temporary.Sync(); err != nil {
		logger.Warnf("unable to fsync temporary file: %s", err.Error())
	}

	if err := temporary.Close(); err != nil {
		must.OSRemove(temporaryPath, logger)
		return errors.Wrap(err, "unable to close temporary file")
	}

	if err := os.Chmod(temporaryPath, 0o600); err != nil {
		must.OSRemove(temporaryPath, logger)
		return errors.Wrap(err, "unable to set temporary file permissions")
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		must.OSRemove(temporaryPath, logger)
		return errors.Wrap(err, "unable to rename temporary file into place")
	}

	return nil
}

// ReadCompressed reads path and transparently decompresses it if its
// suffix calls for Zstandard compression.
func ReadCompressed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(path) {
		return data, nil
	}
	return decompress(data)
}

func compress(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	encoder, err := zstd.NewWriter(&buffer)
	if err != nil {
		return nil, err
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	return io.ReadAll(decoder)
}
