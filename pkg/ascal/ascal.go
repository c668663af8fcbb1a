// Package ascal provides read access to the ASCAL video scaler output region
// that FPGA platforms expose at a fixed physical address.
//
// The package maps the region through /dev/mem, parses the device header that
// precedes the pixel buffers, decodes the raw pixel encodings the scaler can
// emit, and samples frames cheaply for change detection.
//
// # Mapping
//
// Open the scaler window once per process and close it on every exit path:
//
//	w, err := ascal.OpenWindow(ascal.DefaultBaseAddress, ascal.DefaultWindowSize, ascal.AccessReadOnly)
//	if err != nil {
//	    return err // wraps ascal.ErrDeviceUnavailable
//	}
//	defer w.Close()
//
// # Headers
//
// Several incompatible header layouts exist. Pick one at startup and reuse it:
//
//	layout, hdr, err := ascal.DetectLayout(w, ascal.DefaultHeaderConfig())
//	fmt.Printf("%dx%d %s\n", hdr.Width, hdr.Height, hdr.Format)
//
// The header must be parsed again on every cycle since the scaler can switch
// resolution or pixel format at any time:
//
//	hdr, err = layout.Parse(w)
//
// # Sampling
//
// A Sampler walks a sparse grid over the visible frame and produces a
// fingerprint and a dominant color in one pass:
//
//	s := ascal.NewSampler()
//	res, err := s.Sample(w, hdr, ascal.GridFor(4, frameIndex, false))
//	fmt.Printf("%016x %s\n", res.Fingerprint, res.Dominant.Hex())
package ascal

// Platform defaults for the MiSTer DE10-Nano scaler.
const (
	DefaultBaseAddress uint64 = 0x20000000
	DefaultWindowSize         = 2048 * 3 * 1024
)
