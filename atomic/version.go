package atomic

import (
	"github.com/kolkov/atomiclanes/internal/atomics/rawmem"
	"golang.org/x/sys/cpu"
)

// Version information for the atomic lanes library.
const (
	// Version is the current library version.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0

	// MinGoVersion is the oldest Go toolchain the library supports.
	MinGoVersion = "go1.24.0"
)

// Info describes the library build and the host capabilities it detected.
type Info struct {
	// Version is the library version string.
	Version string

	// Wide reports whether the 16-byte reference lane is available.
	Wide bool

	// BigEndian reports host byte order, which fixes where one- and
	// two-byte values sit inside their containing word.
	BigEndian bool

	// PointerSize is the host pointer width in bytes.
	PointerSize int
}

// GetInfo returns build and host information.
//
// Example:
//
//	info := atomic.GetInfo()
//	fmt.Printf("atomiclanes %s (16-byte lane: %v)\n", info.Version, info.Wide)
func GetInfo() Info {
	ps := 8
	if rawmem.Is32Bit {
		ps = 4
	}
	return Info{
		Version:     Version,
		Wide:        rawmem.Has128,
		BigEndian:   cpu.IsBigEndian,
		PointerSize: ps,
	}
}
