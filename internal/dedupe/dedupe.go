// Package dedupe implements the deduper (C5): the orchestrator that
// walks a source tree, consults the incremental cache to decide which
// files need rehashing, and streams out every chunk of every current
// regular file in parallel across a bounded worker pool.
package dedupe

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pkg/errors"

	"github.com/dedupstore/dedupstore/internal/cachestore"
	"github.com/dedupstore/dedupstore/internal/chunk"
	"github.com/dedupstore/dedupstore/internal/digest"
	"github.com/dedupstore/dedupstore/internal/logging"
	"github.com/dedupstore/dedupstore/internal/walk"
)

// ChunkEvent is one element of the deduper's output stream: a chunk
// belonging to some current regular file, tagged with whether it was
// just produced by hashing (Dirty) or already known from the cache. A
// clean event's Chunk.Data is nil; its chunk is presumed already
// present in the chunk store from a prior run.
type ChunkEvent struct {
	Digest string
	Chunk  chunk.Chunk
	Dirty  bool
}

// Deduper orchestrates the walk, cache lookup, and on-demand hashing
// described in §4.5. A Deduper is safe for a single GetChunks/WriteCache
// lifecycle; it is not meant to be reused across unrelated runs.
type Deduper struct {
	sourceRoot     string
	algorithm      digest.Algorithm
	sameFilesystem bool
	workers        int
	chunkSize      int
	primaryPath    string
	logger         *logging.Logger

	mu    sync.Mutex
	cache *cachestore.Cache
	seen  map[string]struct{}
}

// Option configures a Deduper at construction time.
type Option func(*Deduper)

// WithWorkers overrides the worker pool size. A value <= 0 selects the
// available CPU parallelism, matching the reference bound from §4.5.
func WithWorkers(n int) Option {
	return func(d *Deduper) {
		d.workers = n
	}
}

// WithChunkSize overrides the chunk size in bytes used for dirty files.
// A value <= 0 selects chunk.DefaultSize.
func WithChunkSize(n int) Option {
	return func(d *Deduper) {
		d.chunkSize = n
	}
}

// WithLogger attaches a logger; a nil logger discards all output.
func WithLogger(logger *logging.Logger) Option {
	return func(d *Deduper) {
		d.logger = logger
	}
}

// New constructs a Deduper over sourceRoot, loading the layered cache
// view from cacheFiles (primary first). When no cache file exists yet,
// declutterLevel becomes the level recorded in the cache header, so a
// later hydrate can be told it, per the open question in §9. When a
// cache file is loaded, the level from its own header is kept and
// declutterLevel is not recorded.
func New(sourceRoot string, cacheFiles []string, algorithm digest.Algorithm, sameFilesystem bool, declutterLevel int, opts ...Option) (*Deduper, error) {
	d := &Deduper{
		sourceRoot:     sourceRoot,
		algorithm:      algorithm,
		sameFilesystem: sameFilesystem,
		chunkSize:      chunk.DefaultSize,
		seen:           make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers <= 0 {
		d.workers = runtime.GOMAXPROCS(0)
	}
	if d.chunkSize <= 0 {
		d.chunkSize = chunk.DefaultSize
	}
	if len(cacheFiles) > 0 {
		d.primaryPath = cacheFiles[0]
	}

	cache, err := cachestore.LoadLayered(cacheFiles, algorithm, declutterLevel, d.logger)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load cache")
	}
	d.cache = cache

	return d, nil
}

// Cache returns the deduper's in-memory cache view. Callers must not
// mutate it directly; use WriteCache to persist it.
func (d *Deduper) Cache() *cachestore.Cache {
	return d.cache
}

type walkedFile struct {
	entry walk.Entry
}

// GetChunks walks the source tree and streams every chunk of every
// current regular file. It returns the event channel and a wait
// function: wait blocks until the walk and all workers have finished
// and returns the first error encountered, if any. The channel is
// closed once all chunks have been emitted, whether or not an error
// occurred.
func (d *Deduper) GetChunks(ctx context.Context) (<-chan ChunkEvent, func() error) {
	events := make(chan ChunkEvent, d.workers)
	paths := make(chan walkedFile)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(paths)
		return walk.Walk(d.sourceRoot, d.sameFilesystem, func(entry walk.Entry) error {
			select {
			case paths <- walkedFile{entry: entry}:
				return nil
			case <-egCtx.Done():
				return egCtx.Err()
			}
		})
	})

	var workersDone sync.WaitGroup
	workersDone.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		eg.Go(func() error {
			defer workersDone.Done()
			for wf := range paths {
				if err := d.processFile(egCtx, wf.entry, events); err != nil {
					return err
				}
			}
			return nil
		})
	}

	go func() {
		workersDone.Wait()
		close(events)
	}()

	return events, eg.Wait
}

// processFile decides whether entry is unchanged relative to the merged
// cache (skip-rehash) or must be rehashed, and emits its chunks
// accordingly. A file that no longer exists when it is opened is
// silently dropped, per the transient-anomaly rule in §7: it is simply
// never marked seen, so end-of-run pruning removes any stale cache entry
// for it. Any other open or read error is returned.
func (d *Deduper) processFile(ctx context.Context, entry walk.Entry, events chan<- ChunkEvent) error {
	info := entry.Info
	modTime := cachestore.ModTimeFrom(info.ModTime())
	size := info.Size()

	d.mu.Lock()
	existing, hasExisting := d.cache.Get(entry.RelPath)
	d.mu.Unlock()

	if hasExisting && existing.Unchanged(size, modTime) {
		d.markSeen(entry.RelPath)
		return emitClean(ctx, events, existing)
	}

	record, err := d.hashFile(ctx, entry, size, modTime, events)
	if err != nil {
		if os.IsNotExist(err) {
			d.logger.Debugf("file vanished before it could be hashed: %s", entry.RelPath)
			return nil
		}
		return errors.Wrapf(err, "unable to hash %s", entry.RelPath)
	}

	d.markSeen(entry.RelPath)
	d.mu.Lock()
	d.cache.Set(entry.RelPath, record)
	d.mu.Unlock()
	return nil
}

func (d *Deduper) markSeen(path string) {
	d.mu.Lock()
	d.seen[path] = struct{}{}
	d.mu.Unlock()
}

// emitClean emits every digest in record without reading the file
// again; the chunk bytes are presumed already in the store from a prior
// run.
func emitClean(ctx context.Context, events chan<- ChunkEvent, record *cachestore.FileRecord) error {
	for _, digest := range record.Chunks {
		select {
		case events <- ChunkEvent{Digest: digest, Dirty: false}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// hashFile opens entry exactly once and streams its chunks through the
// hash engine, emitting a dirty ChunkEvent for each. Chunks are produced
// in ascending offset order by this single worker, per §4.5.
func (d *Deduper) hashFile(ctx context.Context, entry walk.Entry, size int64, modTime cachestore.ModTime, events chan<- ChunkEvent) (*cachestore.FileRecord, error) {
	path := filepath.Join(d.sourceRoot, entry.RelPath)

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	iterator := chunk.NewIterator(file, d.chunkSize)
	digests := make([]string, 0)

	for {
		c, err := iterator.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		// Copy out of the iterator's reused buffer before handing the
		// chunk to a concurrently-draining consumer.
		data := make([]byte, len(c.Data))
		copy(data, c.Data)
		c.Data = data

		sum := d.algorithm.Sum(c.Data)
		digests = append(digests, sum)

		select {
		case events <- ChunkEvent{Digest: sum, Chunk: c, Dirty: true}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	record := &cachestore.FileRecord{
		Size:    size,
		ModTime: modTime,
		Chunks:  digests,
	}
	if d.chunkSize != chunk.DefaultSize {
		record.ChunkSize = d.chunkSize
	}
	return record, nil
}

// Prune drops cache entries for paths that were present in the merged
// cache but absent from this run's walk, per the end-of-run cache
// refresh policy in §4.5. It must only be called after GetChunks's wait
// function has returned successfully.
func (d *Deduper) Prune() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, path := range d.cache.Paths() {
		if _, ok := d.seen[path]; !ok {
			d.cache.Delete(path)
		}
	}
}

// WriteCache persists a snapshot of the current in-memory cache to the
// primary cache path. The snapshot is taken under lock and persisted
// outside it, per the concurrency model in §5, so that concurrent
// workers are never blocked on disk I/O.
func (d *Deduper) WriteCache() error {
	if d.primaryPath == "" {
		return errors.New("no primary cache path configured")
	}
	d.mu.Lock()
	snapshot := d.cache.Clone()
	d.mu.Unlock()

	return cachestore.Save(d.primaryPath, snapshot, d.logger)
}
