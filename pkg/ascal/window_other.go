//go:build !linux

package ascal

import (
	"fmt"
	"runtime"
)

// OpenWindow is not supported outside Linux.
func OpenWindow(_ uint64, _ int, _ AccessMode) (*Window, error) {
	return nil, fmt.Errorf("%w: physical memory mapping not supported on %s", ErrDeviceUnavailable, runtime.GOOS)
}
