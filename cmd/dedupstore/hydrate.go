package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dedupstore/dedupstore/cmd"
	"github.com/dedupstore/dedupstore/internal/hydrate"
	"github.com/dedupstore/dedupstore/internal/logging"
)

func hydrateMain(command *cobra.Command, arguments []string) error {
	source, target := arguments[0], arguments[1]

	algorithm, err := parseAlgorithm(hydrateConfiguration.algorithm)
	if err != nil {
		return err
	}
	if len(hydrateConfiguration.cacheFiles) == 0 {
		return errors.New("at least one --cache-file must be specified")
	}

	logger := logging.RootLogger.Sublogger("hydrate")

	// The sentinel -1 means the flag was not given: recover the level
	// from whatever the cache header recorded, per §9's suggested
	// auto-detection. Any other negative value is a configuration error.
	declutterLevel := hydrateConfiguration.declutterLevel
	if declutterLevel < -1 {
		return errors.New("declutter level must be non-negative")
	}
	probeLevel := declutterLevel
	if probeLevel < 0 {
		probeLevel = 0
	}

	hydrator, err := hydrate.New(
		source,
		hydrateConfiguration.cacheFiles,
		algorithm,
		probeLevel,
		hydrate.WithVerifyChunks(hydrateConfiguration.verifyChunks),
		hydrate.WithLogger(logger),
	)
	if err != nil {
		return errors.Wrap(err, "unable to initialize hydrator")
	}

	if declutterLevel == -1 {
		declutterLevel = hydrator.Cache().DeclutterLevel()
		logger.Infof("using declutter level %d recovered from the cache header", declutterLevel)
		hydrator.SetDeclutterLevel(declutterLevel)
	}

	if err := hydrator.RestoreFiles(target); err != nil {
		return errors.Wrap(err, "hydrate failed")
	}

	fmt.Printf("Restored %d file(s)\n", hydrator.Cache().Len())
	return nil
}

var hydrateCommand = &cobra.Command{
	Use:   "hydrate <source> <target>",
	Short: "Reconstruct a directory tree from a content-addressed chunk store",
	Args:  cobra.ExactArgs(2),
	Run:   cmd.Mainify(hydrateMain),
}

var hydrateConfiguration struct {
	cacheFiles     []string
	algorithm      string
	declutterLevel int
	verifyChunks   bool
}

func init() {
	flags := hydrateCommand.Flags()
	flags.SortFlags = false
	flags.StringArrayVar(&hydrateConfiguration.cacheFiles, "cache-file", nil, "Cache file path (repeatable; first is the writable primary)")
	flags.StringVar(&hydrateConfiguration.algorithm, "hashing-algorithm", "sha1", "Hashing algorithm (md5|sha1|sha256|sha512)")
	flags.IntVar(&hydrateConfiguration.declutterLevel, "declutter-levels", -1, "Number of hex-prefix fan-out directories under the source root (default: recovered from the cache header)")
	flags.BoolVar(&hydrateConfiguration.verifyChunks, "verify-chunks", false, "Re-hash each chunk as it is read and fail on a digest mismatch")
}
