// Package walk implements the file walker (C3): given a root directory
// and a same-filesystem flag, it yields the relative path of every
// regular file in the subtree, in unspecified but deterministic-per-run
// order.
//
// Symbolic links are never followed and never yielded. When restricted
// to a single filesystem, any entry (file or directory) whose device
// differs from the root's is skipped.
package walk

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Entry describes a single regular file discovered by Walk.
type Entry struct {
	// RelPath is the file's path relative to the walk root, using
	// forward slashes regardless of platform (matching the path
	// separator used to key cache entries).
	RelPath string
	// Info is the result of os.Lstat on the file.
	Info fs.FileInfo
}

// Visitor is invoked once per regular file discovered during the walk.
// Returning an error aborts the walk and propagates the error from Walk.
type Visitor func(Entry) error

// Walk traverses root and invokes visit for every regular file found.
// Directories are recursed into; symbolic links are skipped without
// being followed; any other non-regular entry (socket, device, named
// pipe) is skipped. If sameFilesystem is true, any entry whose device ID
// differs from that of root is skipped, directories included (so their
// entire subtree is pruned).
func Walk(root string, sameFilesystem bool, visit Visitor) error {
	rootInfo, err := os.Lstat(root)
	if err != nil {
		return errors.Wrap(err, "unable to stat walk root")
	}
	if !rootInfo.IsDir() {
		return errors.New("walk root is not a directory")
	}

	var rootDevice uint64
	if sameFilesystem {
		rootDevice, err = deviceID(rootInfo)
		if err != nil {
			return errors.Wrap(err, "unable to determine root device")
		}
	}

	return walkDirectory(root, "", rootDevice, sameFilesystem, visit)
}

// walkDirectory recurses into the directory at absolute path dir, whose
// path relative to the walk root is relPath (empty for the root itself).
func walkDirectory(dir, relPath string, rootDevice uint64, sameFilesystem bool, visit Visitor) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "unable to read directory %q", dir)
	}

	for _, entry := range entries {
		childAbs := filepath.Join(dir, entry.Name())
		childRel := entry.Name()
		if relPath != "" {
			childRel = relPath + "/" + entry.Name()
		}

		info, err := entry.Info()
		if err != nil {
			// The entry may have been removed between ReadDir and Info; this
			// is a transient walk anomaly, not a fatal condition.
			continue
		}

		// Symbolic links are never followed and never yielded, whether
		// they point to a file or a directory.
		if info.Mode()&fs.ModeSymlink != 0 {
			continue
		}

		if sameFilesystem {
			device, err := deviceID(info)
			if err != nil {
				return errors.Wrapf(err, "unable to determine device for %q", childAbs)
			}
			if device != rootDevice {
				continue
			}
		}

		if info.IsDir() {
			if err := walkDirectory(childAbs, childRel, rootDevice, sameFilesystem, visit); err != nil {
				return err
			}
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		if err := visit(Entry{RelPath: childRel, Info: info}); err != nil {
			return err
		}
	}

	return nil
}
