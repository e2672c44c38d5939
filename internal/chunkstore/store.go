package chunkstore

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/dedupstore/dedupstore/internal/logging"
	"github.com/dedupstore/dedupstore/internal/persist"
)

// Exists reports whether digest's chunk is already present under root at
// the given declutter level.
func Exists(root, digest string, level int) bool {
	_, err := os.Stat(Path(root, digest, level))
	return err == nil
}

// Write places data at digest's content-addressed path under root,
// creating any intervening declutter directories as needed. If the
// chunk already exists it is left untouched: re-running against
// identical content is a no-op, which is what makes the writer
// idempotent across repeated runs and across files that share a chunk.
func Write(root, digest string, data []byte, level int, logger *logging.Logger) error {
	path := Path(root, digest, level)

	if Exists(root, digest, level) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create declutter directory for %s", digest)
	}

	if err := persist.WriteAtomic(path, data, logger); err != nil {
		return errors.Wrapf(err, "unable to write chunk %s", digest)
	}
	return nil
}

// Read returns digest's chunk contents from root.
func Read(root, digest string, level int) ([]byte, error) {
	data, err := os.ReadFile(Path(root, digest, level))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read chunk %s", digest)
	}
	return data, nil
}
