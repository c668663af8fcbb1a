package ascal

import "fmt"

// RGB is a normalized 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

// Hex formats the color as #RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// PixelFormat describes one raw pixel encoding the scaler can emit.
// Formats are immutable; compare them by identity.
type PixelFormat struct {
	Name          string
	Depth         int // bits per pixel as reported to users
	BytesPerPixel int
	// GroupPixels is the number of pixels sharing one fetch. YUV422 stores two
	// pixels in one 4-byte macropixel.
	GroupPixels int
	decode      func(raw []byte, sub int) RGB
}

// Closed set of supported encodings.
var (
	RGB565LE = &PixelFormat{Name: "RGB565LE", Depth: 16, BytesPerPixel: 2, GroupPixels: 1, decode: decode565(false, false)}
	RGB565BE = &PixelFormat{Name: "RGB565BE", Depth: 16, BytesPerPixel: 2, GroupPixels: 1, decode: decode565(true, false)}
	BGR565LE = &PixelFormat{Name: "BGR565LE", Depth: 16, BytesPerPixel: 2, GroupPixels: 1, decode: decode565(false, true)}
	BGR565BE = &PixelFormat{Name: "BGR565BE", Depth: 16, BytesPerPixel: 2, GroupPixels: 1, decode: decode565(true, true)}
	RGB24    = &PixelFormat{Name: "RGB24", Depth: 24, BytesPerPixel: 3, GroupPixels: 1, decode: decodeRGB24}
	ARGB32   = &PixelFormat{Name: "ARGB32", Depth: 32, BytesPerPixel: 4, GroupPixels: 1, decode: decodeARGB32}
	YUV422   = &PixelFormat{Name: "YUV422", Depth: 16, BytesPerPixel: 2, GroupPixels: 2, decode: decodeYUYV}
)

// Formats returns every supported pixel format.
func Formats() []*PixelFormat {
	return []*PixelFormat{RGB565LE, RGB565BE, BGR565LE, BGR565BE, RGB24, ARGB32, YUV422}
}

// FormatByName returns the format with the given name, or nil.
func FormatByName(name string) *PixelFormat {
	for _, f := range Formats() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (f *PixelFormat) String() string {
	if f == nil {
		return "unknown"
	}
	return f.Name
}

// FetchSize is the number of bytes read per sample.
func (f *PixelFormat) FetchSize() int {
	return f.BytesPerPixel * f.GroupPixels
}

// HasColor reports whether the format can be converted to RGB. Frames in a
// format without a decode path can still be fingerprinted from raw bytes but
// must not feed color statistics.
func (f *PixelFormat) HasColor() bool {
	return f != nil && f.decode != nil
}

// Decode converts one fetch of raw bytes into RGB. sub selects the pixel
// inside a group and is ignored for formats with GroupPixels == 1.
func (f *PixelFormat) Decode(raw []byte, sub int) RGB {
	return f.decode(raw, sub)
}

// Expand5 widens a 5-bit channel to 8 bits by bit replication.
func Expand5(v uint8) uint8 {
	v &= 0x1f
	return v<<3 | v>>2
}

// Expand6 widens a 6-bit channel to 8 bits by bit replication.
func Expand6(v uint8) uint8 {
	v &= 0x3f
	return v<<2 | v>>4
}

func decode565(bigEndian, bgr bool) func([]byte, int) RGB {
	return func(raw []byte, _ int) RGB {
		var v uint16
		if bigEndian {
			v = uint16(raw[0])<<8 | uint16(raw[1])
		} else {
			v = uint16(raw[0]) | uint16(raw[1])<<8
		}
		hi := Expand5(uint8(v >> 11))
		mid := Expand6(uint8(v >> 5))
		lo := Expand5(uint8(v))
		if bgr {
			return RGB{R: lo, G: mid, B: hi}
		}
		return RGB{R: hi, G: mid, B: lo}
	}
}

func decodeRGB24(raw []byte, _ int) RGB {
	return RGB{R: raw[0], G: raw[1], B: raw[2]}
}

// decodeARGB32 reads a little-endian 0xAARRGGBB word: B, G, R, A in memory.
func decodeARGB32(raw []byte, _ int) RGB {
	return RGB{R: raw[2], G: raw[1], B: raw[0]}
}

// decodeYUYV converts one pixel of a Y0 U Y1 V macropixel using BT.601
// limited-range coefficients.
func decodeYUYV(raw []byte, sub int) RGB {
	y := raw[0]
	if sub&1 == 1 {
		y = raw[2]
	}
	c := int(y) - 16
	d := int(raw[1]) - 128
	e := int(raw[3]) - 128
	return RGB{
		R: clamp8((298*c + 409*e + 128) >> 8),
		G: clamp8((298*c - 100*d - 208*e + 128) >> 8),
		B: clamp8((298*c + 516*d + 128) >> 8),
	}
}

func clamp8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}
