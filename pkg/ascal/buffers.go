package ascal

// BufferPolicy interprets the attribute word: which bit flags triple
// buffering, where the frame counter lives, and where each buffer starts.
//
// Scaler revisions disagree on this layout, so it is configurable rather
// than hard coded.
type BufferPolicy struct {
	InterlacedBit uint
	TripleBit     uint
	CounterShift  uint
	CounterMask   uint16 // applied after the shift
	Offsets       [3]int
	LargeOffsets  [3]int
	Large         bool // select LargeOffsets
}

// DefaultBufferPolicy matches the MiSTer ascal attribute word:
// b0 interlaced, b4 triple buffered, b7-b5 frame counter.
func DefaultBufferPolicy() BufferPolicy {
	return BufferPolicy{
		InterlacedBit: 0,
		TripleBit:     4,
		CounterShift:  5,
		CounterMask:   0x7,
		Offsets:       [3]int{0x000000, 0x200000, 0x400000},
		LargeOffsets:  [3]int{0x000000, 0x800000, 0x1000000},
	}
}

// Counter extracts the frame counter from an attribute word.
func (p BufferPolicy) Counter(attr uint16) uint8 {
	return uint8((attr >> p.CounterShift) & p.CounterMask)
}

// Triple reports whether the attribute word flags triple buffering.
func (p BufferPolicy) Triple(attr uint16) bool {
	return attr&(1<<p.TripleBit) != 0
}

// Interlaced reports whether the attribute word flags an interlaced frame.
func (p BufferPolicy) Interlaced(attr uint16) bool {
	return attr&(1<<p.InterlacedBit) != 0
}

// Index returns the active buffer for an attribute word.
func (p BufferPolicy) Index(attr uint16) int {
	if !p.Triple(attr) {
		return 0
	}
	return int(p.Counter(attr)) % 3
}

// Offset returns the start of buffer index relative to the window base.
// Without triple buffering there is only buffer 0.
func (p BufferPolicy) Offset(triple bool, index int, large bool) int {
	if !triple || index < 0 || index > 2 {
		return 0
	}
	if large {
		return p.LargeOffsets[index]
	}
	return p.Offsets[index]
}

// FormatCodec maps a header format code to a pixel format, or nil.
type FormatCodec func(code uint8) *PixelFormat

// AscalFormat decodes the scaler's format byte: bits 2-0 select the
// encoding (0 16bpp, 1 RGB24, 2 ARGB32, 3 YUV422); for 16bpp bit 3 selects
// BGR channel order and bit 4 little-endian byte order.
func AscalFormat(code uint8) *PixelFormat {
	if code&0xe0 != 0 {
		return nil
	}
	switch code & 0x07 {
	case 0:
		bgr := code&0x08 != 0
		le := code&0x10 != 0
		switch {
		case bgr && le:
			return BGR565LE
		case bgr:
			return BGR565BE
		case le:
			return RGB565LE
		default:
			return RGB565BE
		}
	case 1:
		if code&0x18 != 0 {
			return nil
		}
		return RGB24
	case 2:
		if code&0x18 != 0 {
			return nil
		}
		return ARGB32
	case 3:
		if code&0x18 != 0 {
			return nil
		}
		return YUV422
	default:
		return nil
	}
}

// BytesPerPixelFormat decodes the older "bytes per pixel minus one" byte.
// 8-bit paletted output has no format here.
func BytesPerPixelFormat(code uint8) *PixelFormat {
	switch int(code) + 1 {
	case 2:
		return RGB565LE
	case 3:
		return RGB24
	case 4:
		return ARGB32
	default:
		return nil
	}
}

// EncodeAscalFormat is the inverse of AscalFormat for building headers.
func EncodeAscalFormat(f *PixelFormat) (uint8, bool) {
	switch f {
	case RGB565BE:
		return 0x00, true
	case BGR565BE:
		return 0x08, true
	case RGB565LE:
		return 0x10, true
	case BGR565LE:
		return 0x18, true
	case RGB24:
		return 0x01, true
	case ARGB32:
		return 0x02, true
	case YUV422:
		return 0x03, true
	default:
		return 0, false
	}
}
