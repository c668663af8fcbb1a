package cmd

import (
	"errors"

	"github.com/smazurov/scalerwatch/internal/capture"
	"github.com/smazurov/scalerwatch/pkg/ascal"
)

// Process exit codes.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitDeviceUnavailable = 2
	ExitBadHeader         = 3
	ExitAllocation        = 4
)

// ExitCode maps an error returned by the monitor or capture path to the
// process exit code. A nil error, including a normal interrupt, is ExitOK.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ascal.ErrDeviceUnavailable):
		return ExitDeviceUnavailable
	case errors.Is(err, ascal.ErrBadHeader):
		return ExitBadHeader
	case errors.Is(err, capture.ErrAllocation):
		return ExitAllocation
	default:
		return ExitFailure
	}
}
