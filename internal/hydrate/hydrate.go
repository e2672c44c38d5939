// Package hydrate implements the hydrator (C7): the inverse of the
// deduper. Given a cache and a chunk store, it reconstructs every file
// the cache describes, concatenating referenced chunks in order and
// restoring recorded modification times.
package hydrate

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/dedupstore/dedupstore/internal/cachestore"
	"github.com/dedupstore/dedupstore/internal/chunkstore"
	"github.com/dedupstore/dedupstore/internal/digest"
	"github.com/dedupstore/dedupstore/internal/logging"
)

// ErrMissingChunks is returned by RestoreFiles when the chunk store is
// missing one or more chunks the cache references. No output file is
// written once this is detected.
var ErrMissingChunks = errors.New("chunk store is missing one or more referenced chunks")

// Hydrator reconstructs files described by a layered cache view from
// chunks held under a source root (the chunk store).
type Hydrator struct {
	storeRoot      string
	declutterLevel int
	cache          *cachestore.Cache
	algorithm      digest.Algorithm
	verifyChunks   bool
	logger         *logging.Logger
}

// Option configures a Hydrator at construction time.
type Option func(*Hydrator)

// WithVerifyChunks enables re-hashing each chunk as it is read and
// failing fatally on a digest mismatch, per the optional integrity
// check in §4.7. The default trusts the store.
func WithVerifyChunks(enabled bool) Option {
	return func(h *Hydrator) {
		h.verifyChunks = enabled
	}
}

// WithLogger attaches a logger; a nil logger discards all output.
func WithLogger(logger *logging.Logger) Option {
	return func(h *Hydrator) {
		h.logger = logger
	}
}

// New constructs a Hydrator over storeRoot (the chunk store), loading
// the layered cache view from cacheFiles (primary first).
func New(storeRoot string, cacheFiles []string, algorithm digest.Algorithm, declutterLevel int, opts ...Option) (*Hydrator, error) {
	h := &Hydrator{
		storeRoot:      storeRoot,
		declutterLevel: declutterLevel,
		algorithm:      algorithm,
	}
	for _, opt := range opts {
		opt(h)
	}

	cache, err := cachestore.LoadLayered(cacheFiles, algorithm, declutterLevel, h.logger)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load cache")
	}
	h.cache = cache

	return h, nil
}

// Cache returns the hydrator's merged cache view.
func (h *Hydrator) Cache() *cachestore.Cache {
	return h.cache
}

// SetDeclutterLevel overrides the declutter level used to locate chunks
// in the store. It exists for callers that load the cache before
// knowing the declutter level to use (recovering it from the cache
// header itself once loaded, per §9's suggested auto-detection).
func (h *Hydrator) SetDeclutterLevel(level int) {
	h.declutterLevel = level
}

// RestoreFiles reconstructs every file in the cache under targetRoot.
// It pre-checks the chunk store with ListMissing and fails before
// writing any output if any referenced chunk is absent.
func (h *Hydrator) RestoreFiles(targetRoot string) error {
	if missing := chunkstore.ListMissing(h.storeRoot, h.declutterLevel, h.cache); len(missing) > 0 {
		h.logger.Errorf("missing %d chunk(s), first: %s", len(missing), missing[0])
		return ErrMissingChunks
	}

	for _, path := range h.cache.Paths() {
		record, ok := h.cache.Get(path)
		if !ok {
			continue
		}
		if err := h.restoreFile(targetRoot, path, record); err != nil {
			return errors.Wrapf(err, "unable to restore %s", path)
		}
	}
	return nil
}

func (h *Hydrator) restoreFile(targetRoot, relPath string, record *cachestore.FileRecord) error {
	outputPath := filepath.Join(targetRoot, relPath)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return errors.Wrap(err, "unable to create parent directory")
	}

	output, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "unable to create output file")
	}

	for _, digest := range record.Chunks {
		data, err := chunkstore.Read(h.storeRoot, digest, h.declutterLevel)
		if err != nil {
			output.Close()
			return err
		}
		if h.verifyChunks {
			if sum := h.algorithm.Sum(data); sum != digest {
				output.Close()
				return errors.Errorf("chunk %s failed verification, got digest %s", digest, sum)
			}
		}
		if _, err := output.Write(data); err != nil {
			output.Close()
			return errors.Wrap(err, "unable to write reconstructed file")
		}
	}

	if err := output.Close(); err != nil {
		return errors.Wrap(err, "unable to close reconstructed file")
	}

	modTime := record.ModTime.Time()
	if err := os.Chtimes(outputPath, modTime, modTime); err != nil {
		return errors.Wrap(err, "unable to restore modification time")
	}
	return nil
}
