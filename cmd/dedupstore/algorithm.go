package main

import (
	"github.com/pkg/errors"

	"github.com/dedupstore/dedupstore/internal/digest"
)

// parseAlgorithm resolves the --hashing-algorithm flag's value to a
// digest.Algorithm, matching the CLI's configuration-error taxonomy in
// §7: an unknown tag is a fatal startup error, not a run-time one.
func parseAlgorithm(tag string) (digest.Algorithm, error) {
	algorithm, err := digest.ParseTag(tag)
	if err != nil {
		return 0, errors.Wrapf(err, "unknown hashing algorithm %q", tag)
	}
	return algorithm, nil
}
