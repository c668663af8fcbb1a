package ascal

import "fmt"

// FrameHeader is the normalized view of the scaler header, whatever layout
// it was read with.
type FrameHeader struct {
	Layout  string
	Magic   [4]byte // zero for layouts without a signature
	Type    uint8
	Version uint8

	// HeaderLength is the distance from the start of a buffer to its first pixel.
	HeaderLength int
	FormatCode   uint8
	Format       *PixelFormat // nil when FormatCode is not recognized
	Attributes   uint16

	Width        int
	Height       int
	Stride       int // bytes per line
	OutputWidth  int
	OutputHeight int

	Interlaced     bool
	TripleBuffered bool
	FrameCounter   uint8
	BufferIndex    int
	BufferOffset   int // start of the active buffer relative to the window base
}

// FrameBase returns the window offset of the first pixel of the active frame.
func (h FrameHeader) FrameBase() int {
	return h.BufferOffset + h.HeaderLength
}

// BitDepth returns the bits per pixel of the active format, or 0 if unknown.
func (h FrameHeader) BitDepth() int {
	if h.Format == nil {
		return 0
	}
	return h.Format.Depth
}

// SameGeometry reports whether both headers describe the same frame layout:
// resolution, stride, pixel format and header size. Buffer rotation and the
// frame counter are ignored.
func (h FrameHeader) SameGeometry(o FrameHeader) bool {
	return h.Layout == o.Layout &&
		h.Width == o.Width &&
		h.Height == o.Height &&
		h.Stride == o.Stride &&
		h.FormatCode == o.FormatCode &&
		h.Format == o.Format &&
		h.HeaderLength == o.HeaderLength
}

// Resolution formats the geometry as WxH.
func (h FrameHeader) Resolution() string {
	return fmt.Sprintf("%dx%d", h.Width, h.Height)
}

// frameFits reports whether the header describes a frame whose every line
// could be addressed inside a window of n bytes.
func (h FrameHeader) frameFits(n int) bool {
	if h.Format == nil || h.Width <= 0 || h.Height <= 0 {
		return true
	}
	if h.Stride < h.Width*h.Format.BytesPerPixel {
		return false
	}
	return h.FrameBase()+(h.Height-1)*h.Stride+h.Width*h.Format.BytesPerPixel <= n
}
