package cmd

import (
	"fmt"
	"strconv"

	"github.com/smazurov/scalerwatch/pkg/ascal"
)

// ParseAddress parses a physical address or size given in decimal, 0x hex
// or 0o octal.
func ParseAddress(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return v, nil
}

// WindowSize returns the mapping length to use. A zero size selects the
// default window, grown to span the large buffer set when that is enabled.
func WindowSize(size uint64, large bool) int {
	if size > 0 {
		return int(size)
	}
	if large {
		p := ascal.DefaultBufferPolicy()
		return p.LargeOffsets[2] + p.LargeOffsets[1]
	}
	return ascal.DefaultWindowSize
}

// HeaderConfig returns the header policies for the large-buffer setting.
func HeaderConfig(large bool) ascal.HeaderConfig {
	cfg := ascal.DefaultHeaderConfig()
	cfg.Buffers.Large = large
	return cfg
}
