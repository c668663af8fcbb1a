//go:build linux

package ascal

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const memDevice = "/dev/mem"

// OpenWindow maps length bytes of physical memory starting at base.
// The base is rounded down to the page size internally and the returned
// window starts exactly at base.
func OpenWindow(base uint64, length int, mode AccessMode) (*Window, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: invalid window length %d", ErrDeviceUnavailable, length)
	}

	flags := unix.O_RDONLY | unix.O_SYNC | unix.O_CLOEXEC
	prot := unix.PROT_READ
	if mode == AccessReadWrite {
		flags = unix.O_RDWR | unix.O_SYNC | unix.O_CLOEXEC
		prot |= unix.PROT_WRITE
	}

	fd, err := unix.Open(memDevice, flags, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDeviceUnavailable, memDevice, err)
	}
	// The mapping outlives the descriptor.
	defer unix.Close(fd)

	aligned, offset := pageAlign(base, unix.Getpagesize())
	mapping, err := unix.Mmap(fd, int64(aligned), length+offset, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %#x (%d bytes): %w", ErrDeviceUnavailable, aligned, length+offset, err)
	}

	return &Window{
		mapping: mapping,
		view:    mapping[offset:],
		unmap:   unix.Munmap,
	}, nil
}
