package ascal

import "errors"

var (
	// ErrDeviceUnavailable is returned when physical memory cannot be opened or mapped.
	ErrDeviceUnavailable = errors.New("scaler memory unavailable")

	// ErrBadHeader is the umbrella for every header validation failure.
	ErrBadHeader = errors.New("bad scaler header")

	// ErrBadMagic is returned when the header signature does not match the layout.
	ErrBadMagic = errors.New("bad header magic")

	// ErrBadType is returned when the header type/version bytes do not match the layout.
	ErrBadType = errors.New("bad header type")

	// ErrUnsupportedFormat is returned when the pixel format code is not known.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")

	// ErrOutOfRange is returned for reads past the end of the mapped window.
	ErrOutOfRange = errors.New("offset outside mapped window")

	// ErrClosed is returned when reading from a closed window.
	ErrClosed = errors.New("window closed")
)

// headerError ties a layout-specific failure to ErrBadHeader so callers can
// match either the precise cause or the whole class.
type headerError struct {
	layout string
	cause  error
}

func (e *headerError) Error() string {
	return e.layout + ": " + e.cause.Error()
}

func (e *headerError) Is(target error) bool {
	return target == ErrBadHeader || target == e.cause
}

func (e *headerError) Unwrap() error {
	return e.cause
}
