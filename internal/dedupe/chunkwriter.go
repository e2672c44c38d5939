package dedupe

import (
	"github.com/pkg/errors"

	"github.com/dedupstore/dedupstore/internal/chunkstore"
	"github.com/dedupstore/dedupstore/internal/logging"
)

// WriteChunks drains events, writing every dirty chunk's bytes to its
// content-addressed path under targetRoot (C6). Clean chunks are
// skipped: their bytes are presumed already present in the store from
// whatever run originally produced them.
func WriteChunks(events <-chan ChunkEvent, targetRoot string, declutterLevel int, logger *logging.Logger) error {
	for event := range events {
		if !event.Dirty {
			continue
		}
		if err := chunkstore.Write(targetRoot, event.Digest, event.Chunk.Data, declutterLevel, logger); err != nil {
			return errors.Wrapf(err, "unable to write chunk %s", event.Digest)
		}
	}
	return nil
}
