package ascal

import "fmt"

// AccessMode selects the protection of the physical memory mapping.
type AccessMode int

// Access modes.
const (
	AccessReadOnly  AccessMode = iota
	AccessReadWrite            // capture tool only; the monitor never writes
)

// Window is a bounds-checked view over the mapped scaler region.
//
// The backing memory is written by hardware outside this process. Every
// accessor loads each byte exactly once and nothing is cached between calls,
// so two reads of the same offset may legitimately return different values.
type Window struct {
	mapping []byte // the whole mapping, page aligned
	view    []byte // mapping[pageOffset:], starts at the requested base
	unmap   func([]byte) error
	closed  bool
}

// NewWindow wraps an in-memory byte slice. Close on such a window only
// detaches the slice.
func NewWindow(b []byte) *Window {
	return &Window{mapping: b, view: b}
}

// Len returns the number of addressable bytes starting at the base address.
func (w *Window) Len() int {
	if w == nil || w.closed {
		return 0
	}
	return len(w.view)
}

// Contains reports whether [off, off+n) lies inside the window.
func (w *Window) Contains(off, n int) bool {
	if off < 0 || n < 0 {
		return false
	}
	return off <= w.Len()-n
}

// ByteAt returns the byte at off.
func (w *Window) ByteAt(off int) (byte, error) {
	if !w.Contains(off, 1) {
		return 0, w.rangeErr(off, 1)
	}
	return w.view[off], nil
}

// Uint16At returns the big-endian 16-bit value at off.
func (w *Window) Uint16At(off int) (uint16, error) {
	if !w.Contains(off, 2) {
		return 0, w.rangeErr(off, 2)
	}
	hi := w.view[off]
	lo := w.view[off+1]
	return uint16(hi)<<8 | uint16(lo), nil
}

// CopyAt copies len(dst) bytes starting at off into dst.
func (w *Window) CopyAt(off int, dst []byte) error {
	if !w.Contains(off, len(dst)) {
		return w.rangeErr(off, len(dst))
	}
	src := w.view[off : off+len(dst)]
	for i := range dst {
		dst[i] = src[i]
	}
	return nil
}

// Close releases the mapping. It is safe to call on a partially initialized
// window and more than once.
func (w *Window) Close() error {
	if w == nil || w.closed {
		return nil
	}
	w.closed = true
	mapping := w.mapping
	w.mapping, w.view = nil, nil
	if w.unmap == nil || mapping == nil {
		return nil
	}
	if err := w.unmap(mapping); err != nil {
		return fmt.Errorf("unmap scaler window: %w", err)
	}
	return nil
}

func (w *Window) rangeErr(off, n int) error {
	if w == nil || w.closed {
		return ErrClosed
	}
	return fmt.Errorf("%w: read %d bytes at %#x, window is %#x bytes", ErrOutOfRange, n, off, len(w.view))
}

// pageAlign rounds base down to the page size and returns the aligned base
// and the distance between the two.
func pageAlign(base uint64, pageSize int) (aligned uint64, offset int) {
	if pageSize <= 0 {
		pageSize = 4096
	}
	mask := uint64(pageSize - 1)
	aligned = base &^ mask
	return aligned, int(base - aligned)
}
