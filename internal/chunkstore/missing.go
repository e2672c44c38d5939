package chunkstore

import "github.com/dedupstore/dedupstore/internal/cachestore"

// ListMissing returns every chunk digest referenced by any entry in
// cache whose content-addressed path is absent under root. Hydration
// uses this to fail fast, before writing any output file, if the chunk
// store is incomplete.
func ListMissing(root string, level int, cache *cachestore.Cache) []string {
	seen := make(map[string]struct{})
	var missing []string

	for _, path := range cache.Paths() {
		record, ok := cache.Get(path)
		if !ok {
			continue
		}
		for _, digest := range record.Chunks {
			if _, checked := seen[digest]; checked {
				continue
			}
			seen[digest] = struct{}{}
			if !Exists(root, digest, level) {
				missing = append(missing, digest)
			}
		}
	}

	return missing
}
