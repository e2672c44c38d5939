//go:build !windows

package walk

import (
	"io/fs"
	"syscall"

	"github.com/pkg/errors"
)

// deviceID extracts the device identifier from file metadata.
func deviceID(info fs.FileInfo) (uint64, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, errors.New("unable to extract raw filesystem information")
	}
	return uint64(stat.Dev), nil
}
