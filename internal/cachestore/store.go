package cachestore

import (
	"os"

	"github.com/pkg/errors"

	"github.com/dedupstore/dedupstore/internal/digest"
	"github.com/dedupstore/dedupstore/internal/logging"
	"github.com/dedupstore/dedupstore/internal/persist"
)

// LoadLayered loads a layered cache view from paths, where paths[0] is
// the writable primary and the remainder are read-only fallbacks.
//
// Layers are merged in reverse order (last path loaded first, primary
// loaded last and overwriting), so that a path recorded in both the
// primary and a fallback resolves to the primary's record. A missing
// primary file is not an error: it starts empty and fallbacks seed it.
// A missing non-primary file is skipped with a warning. A corrupt cache
// file, or one declaring an algorithm other than algorithm, is fatal.
//
// declutterLevel seeds the returned cache's declutter level when no
// layer exists yet (a brand-new run). Once any layer is loaded, its
// on-disk declutter level takes over, with the primary's value winning
// last, the same way its entries do — this is what lets a hydrate
// invoked without an explicit declutter level fall back to whatever the
// dedupe run that produced the cache recorded.
func LoadLayered(paths []string, algorithm digest.Algorithm, declutterLevel int, logger *logging.Logger) (*Cache, error) {
	if len(paths) == 0 {
		return New(algorithm, declutterLevel), nil
	}

	merged := New(algorithm, declutterLevel)
	for i := len(paths) - 1; i >= 0; i-- {
		path := paths[i]
		isPrimary := i == 0

		data, err := persist.ReadCompressed(path)
		if err != nil {
			if os.IsNotExist(err) {
				if isPrimary {
					continue
				}
				logger.Warnf("cache file does not exist, skipping: %s", path)
				continue
			}
			return nil, errors.Wrapf(err, "unable to read cache file %s", path)
		}

		layer, err := unmarshalCache(data)
		if err != nil {
			return nil, errors.Wrapf(err, "cache file %s", path)
		}
		if layer.algorithm != algorithm {
			return nil, errors.Wrapf(ErrAlgorithmMismatch, "cache file %s declares %s, expected %s", path, layer.algorithm, algorithm)
		}

		for p, record := range layer.entries {
			merged.entries[p] = record
		}
		merged.declutterLevel = layer.declutterLevel
	}

	return merged, nil
}

// Save persists cache atomically to path (the primary cache file).
func Save(path string, cache *Cache, logger *logging.Logger) error {
	data, err := cache.marshal()
	if err != nil {
		return errors.Wrap(err, "unable to serialize cache")
	}
	return persist.WriteAtomic(path, data, logger)
}
