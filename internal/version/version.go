// Package version records the dedupstore release version.
package version

import "fmt"

const (
	// Major represents the current major version of dedupstore.
	Major = 0
	// Minor represents the current minor version of dedupstore.
	Minor = 1
	// Patch represents the current patch version of dedupstore.
	Patch = 0
)

// String is the composed Major.Minor.Patch version string.
var String string

func init() {
	String = fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
}
