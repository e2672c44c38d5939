package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dedupstore/dedupstore/cmd"
	"github.com/dedupstore/dedupstore/internal/dedupe"
	"github.com/dedupstore/dedupstore/internal/logging"
)

func dedupeMain(command *cobra.Command, arguments []string) error {
	source, target := arguments[0], arguments[1]

	algorithm, err := parseAlgorithm(dedupeConfiguration.algorithm)
	if err != nil {
		return err
	}
	if dedupeConfiguration.declutterLevel < 0 {
		return errors.New("declutter level must be non-negative")
	}
	if len(dedupeConfiguration.cacheFiles) == 0 {
		return errors.New("at least one --cache-file must be specified")
	}

	logger := logging.RootLogger.Sublogger("dedupe")

	deduper, err := dedupe.New(
		source,
		dedupeConfiguration.cacheFiles,
		algorithm,
		dedupeConfiguration.sameFilesystem,
		dedupeConfiguration.declutterLevel,
		dedupe.WithWorkers(dedupeConfiguration.workers),
		dedupe.WithChunkSize(dedupeConfiguration.chunkSize),
		dedupe.WithLogger(logger),
	)
	if err != nil {
		return errors.Wrap(err, "unable to initialize deduper")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, wait := deduper.GetChunks(ctx)
	writeErr := dedupe.WriteChunks(events, target, dedupeConfiguration.declutterLevel, logger)
	if writeErr != nil {
		cancel()
	}
	if err := wait(); err != nil {
		return errors.Wrap(err, "dedupe failed")
	}
	if writeErr != nil {
		return errors.Wrap(writeErr, "unable to write chunk store")
	}

	deduper.Prune()
	if err := deduper.WriteCache(); err != nil {
		return errors.Wrap(err, "unable to persist cache")
	}

	cache := deduper.Cache()
	var totalBytes uint64
	for _, path := range cache.Paths() {
		if record, ok := cache.Get(path); ok {
			totalBytes += uint64(record.Size)
		}
	}
	fmt.Printf("Deduplicated %d file(s), %s\n", cache.Len(), humanize.Bytes(totalBytes))

	return nil
}

var dedupeCommand = &cobra.Command{
	Use:   "dedupe <source> <target>",
	Short: "Deduplicate a directory tree into a content-addressed chunk store",
	Args:  cobra.ExactArgs(2),
	Run:   cmd.Mainify(dedupeMain),
}

var dedupeConfiguration struct {
	cacheFiles     []string
	algorithm      string
	sameFilesystem bool
	declutterLevel int
	workers        int
	chunkSize      int
}

func init() {
	flags := dedupeCommand.Flags()
	flags.SortFlags = false
	flags.StringArrayVar(&dedupeConfiguration.cacheFiles, "cache-file", nil, "Cache file path (repeatable; first is the writable primary)")
	flags.StringVar(&dedupeConfiguration.algorithm, "hashing-algorithm", "sha1", "Hashing algorithm (md5|sha1|sha256|sha512)")
	flags.BoolVar(&dedupeConfiguration.sameFilesystem, "same-file-system", false, "Do not cross filesystem boundaries while walking")
	flags.IntVar(&dedupeConfiguration.declutterLevel, "declutter-levels", 0, "Number of hex-prefix fan-out directories under the target root")
	flags.IntVar(&dedupeConfiguration.workers, "workers", 0, "Parallel hashing worker count (0 selects available CPU parallelism)")
	flags.IntVar(&dedupeConfiguration.chunkSize, "chunk-size", 0, "Chunk size in bytes for freshly hashed files (0 selects the default, 4 MiB)")
}
