package ascal

import (
	"errors"
	"fmt"
	"strings"
)

// Known layout names.
const (
	LayoutASCL   = "ascl"
	LayoutAscal  = "ascal"
	LayoutLegacy = "legacy"
	LayoutAuto   = "auto"
)

// Signature carried by the ascl layout.
var Signature = [4]byte{'A', 'S', 'C', 'L'}

// Layout parses one header variant.
type Layout interface {
	// Name identifies the layout in logs and configuration.
	Name() string
	// Parse reads and validates the header at the window base.
	Parse(w *Window) (FrameHeader, error)
	// Counter reads only the frame counter, for cheap change polling.
	Counter(w *Window) (uint8, error)
}

// HeaderConfig carries the policies shared by every layout.
type HeaderConfig struct {
	Buffers BufferPolicy
}

// DefaultHeaderConfig returns the MiSTer defaults.
func DefaultHeaderConfig() HeaderConfig {
	return HeaderConfig{Buffers: DefaultBufferPolicy()}
}

// fieldLayout describes a header as a table of byte offsets. All multi-byte
// fields are big-endian.
type fieldLayout struct {
	name       string
	magic      []byte // nil when the layout has no signature
	typeOff    int
	typ        uint8
	versionOff int // -1 when the layout has no version byte
	version    uint8
	formatOff  int
	headerOff  int
	attrOff    int
	attrWide   bool // 16-bit attribute word instead of a single byte
	widthOff   int
	heightOff  int
	strideOff  int
	outWOff    int
	outHOff    int
	size       int
	codec      FormatCodec
	buffers    BufferPolicy
}

func newASCL(cfg HeaderConfig) *fieldLayout {
	return &fieldLayout{
		name: LayoutASCL, magic: Signature[:],
		typeOff: 4, typ: 1, versionOff: -1,
		formatOff: 5, headerOff: 6, attrOff: 8, attrWide: true,
		widthOff: 10, heightOff: 12, strideOff: 14, outWOff: 16, outHOff: 18,
		size: 20, codec: AscalFormat, buffers: cfg.Buffers,
	}
}

func newAscal(cfg HeaderConfig) *fieldLayout {
	return &fieldLayout{
		name:    LayoutAscal,
		typeOff: 0, typ: 1, versionOff: -1,
		formatOff: 1, headerOff: 2, attrOff: 4, attrWide: true,
		widthOff: 6, heightOff: 8, strideOff: 10, outWOff: 12, outHOff: 14,
		size: 16, codec: AscalFormat, buffers: cfg.Buffers,
	}
}

func newLegacy(cfg HeaderConfig) *fieldLayout {
	return &fieldLayout{
		name:    LayoutLegacy,
		typeOff: 0, typ: 1, versionOff: 1, version: 1,
		formatOff: 4, headerOff: 2, attrOff: 5,
		widthOff: 6, heightOff: 8, strideOff: 10, outWOff: 12, outHOff: 14,
		size: 16, codec: BytesPerPixelFormat, buffers: cfg.Buffers,
	}
}

// Layouts returns every known layout in detection order.
func Layouts(cfg HeaderConfig) []Layout {
	return []Layout{newASCL(cfg), newAscal(cfg), newLegacy(cfg)}
}

// LayoutByName returns the named layout.
func LayoutByName(name string, cfg HeaderConfig) (Layout, error) {
	for _, l := range Layouts(cfg) {
		if l.Name() == strings.ToLower(name) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("unknown header layout %q", name)
}

// DetectLayout trial-parses every known layout and returns the first one
// whose header validates and describes a frame that fits the window.
func DetectLayout(w *Window, cfg HeaderConfig) (Layout, FrameHeader, error) {
	var errs []error
	for _, l := range Layouts(cfg) {
		hdr, err := l.Parse(w)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !hdr.frameFits(w.Len()) {
			errs = append(errs, &headerError{layout: l.Name(), cause: ErrOutOfRange})
			continue
		}
		return l, hdr, nil
	}
	return nil, FrameHeader{}, fmt.Errorf("%w: no known layout matched: %w", ErrBadHeader, errors.Join(errs...))
}

// ResolveLayout returns the configured layout, detecting it when name is
// empty or "auto". The returned header is the one that validated.
func ResolveLayout(w *Window, name string, cfg HeaderConfig) (Layout, FrameHeader, error) {
	if name == "" || strings.EqualFold(name, LayoutAuto) {
		return DetectLayout(w, cfg)
	}
	l, err := LayoutByName(name, cfg)
	if err != nil {
		return nil, FrameHeader{}, err
	}
	hdr, err := l.Parse(w)
	if err != nil {
		return nil, FrameHeader{}, err
	}
	return l, hdr, nil
}

func (l *fieldLayout) Name() string {
	return l.name
}

func (l *fieldLayout) Parse(w *Window) (FrameHeader, error) {
	var raw [32]byte
	buf := raw[:l.size]
	// One snapshot of the header bytes so every field comes from the same read.
	if err := w.CopyAt(0, buf); err != nil {
		return FrameHeader{}, &headerError{layout: l.name, cause: err}
	}

	hdr := FrameHeader{Layout: l.name}
	if l.magic != nil {
		copy(hdr.Magic[:], buf[:4])
		if string(buf[:len(l.magic)]) != string(l.magic) {
			return FrameHeader{}, &headerError{layout: l.name, cause: ErrBadMagic}
		}
	}

	hdr.Type = buf[l.typeOff]
	if hdr.Type != l.typ {
		return FrameHeader{}, &headerError{layout: l.name, cause: ErrBadType}
	}
	if l.versionOff >= 0 {
		hdr.Version = buf[l.versionOff]
		if hdr.Version != l.version {
			return FrameHeader{}, &headerError{layout: l.name, cause: ErrBadType}
		}
	}

	hdr.FormatCode = buf[l.formatOff]
	hdr.Format = l.codec(hdr.FormatCode)
	hdr.HeaderLength = int(be16(buf, l.headerOff))
	if hdr.HeaderLength < l.size {
		hdr.HeaderLength = l.size
	}
	hdr.Attributes = l.attributes(buf)
	hdr.Width = int(be16(buf, l.widthOff))
	hdr.Height = int(be16(buf, l.heightOff))
	hdr.Stride = int(be16(buf, l.strideOff))
	hdr.OutputWidth = int(be16(buf, l.outWOff))
	hdr.OutputHeight = int(be16(buf, l.outHOff))

	p := l.buffers
	hdr.Interlaced = p.Interlaced(hdr.Attributes)
	hdr.TripleBuffered = p.Triple(hdr.Attributes)
	hdr.FrameCounter = p.Counter(hdr.Attributes)
	hdr.BufferIndex = p.Index(hdr.Attributes)
	hdr.BufferOffset = p.Offset(hdr.TripleBuffered, hdr.BufferIndex, p.Large)
	return hdr, nil
}

func (l *fieldLayout) Counter(w *Window) (uint8, error) {
	attr, err := l.readAttributes(w)
	if err != nil {
		return 0, err
	}
	return l.buffers.Counter(attr), nil
}

func (l *fieldLayout) attributes(buf []byte) uint16 {
	if l.attrWide {
		return be16(buf, l.attrOff)
	}
	return uint16(buf[l.attrOff])
}

func (l *fieldLayout) readAttributes(w *Window) (uint16, error) {
	if l.attrWide {
		return w.Uint16At(l.attrOff)
	}
	b, err := w.ByteAt(l.attrOff)
	return uint16(b), err
}

func be16(b []byte, off int) uint16 {
	return uint16(b[off])<<8 | uint16(b[off+1])
}
