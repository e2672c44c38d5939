// Package must provides wrappers for cleanup operations whose errors are
// worth logging but not worth propagating, matching the lineage's
// best-effort-cleanup idiom (used, e.g., to remove a stray temporary file
// after a failed atomic write).
package must

import (
	"io"
	"os"

	"github.com/dedupstore/dedupstore/internal/logging"
)

// Close closes c, logging any error as a warning.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging any error as a warning.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}
