package ascal

import "testing"

// buildFrame returns a window-sized buffer holding hdr encoded in layout.
func buildFrame(t *testing.T, layout string, hdr FrameHeader, size int) []byte {
	t.Helper()
	raw, err := EncodeHeader(layout, hdr)
	if err != nil {
		t.Fatalf("EncodeHeader(%s) failed: %v", layout, err)
	}
	if size < len(raw) {
		size = len(raw)
	}
	buf := make([]byte, size)
	copy(buf, raw)
	return buf
}

// fillRGB24 paints every pixel of an RGB24 frame starting at base.
func fillRGB24(buf []byte, base, width, height, stride int, c RGB) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			setRGB24(buf, base, stride, x, y, c)
		}
	}
}

func setRGB24(buf []byte, base, stride, x, y int, c RGB) {
	off := base + y*stride + x*3
	buf[off], buf[off+1], buf[off+2] = c.R, c.G, c.B
}
