package monitor

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/smazurov/scalerwatch/pkg/ascal"
)

const testHeaderLength = 20

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testFrame is a synthetic ASCL window holding an RGB24 frame.
type testFrame struct {
	buf    []byte
	width  int
	height int
	stride int
}

func newTestFrame(t *testing.T, width, height int, fill ascal.RGB) *testFrame {
	t.Helper()
	f := &testFrame{buf: make([]byte, 4096)}
	f.setGeometry(t, width, height, 0x01)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.set(x, y, fill)
		}
	}
	return f
}

func (f *testFrame) setGeometry(t *testing.T, width, height int, code uint8) {
	t.Helper()
	hdr, err := ascal.EncodeHeader(ascal.LayoutASCL, ascal.FrameHeader{
		FormatCode:   code,
		HeaderLength: testHeaderLength,
		Width:        width,
		Height:       height,
		Stride:       width * 3,
		OutputWidth:  width,
		OutputHeight: height,
	})
	if err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}
	copy(f.buf, hdr)
	f.width, f.height, f.stride = width, height, width*3
}

func (f *testFrame) set(x, y int, c ascal.RGB) {
	off := testHeaderLength + y*f.stride + x*3
	f.buf[off], f.buf[off+1], f.buf[off+2] = c.R, c.G, c.B
}

func (f *testFrame) open(uint64, int) (*ascal.Window, error) {
	return ascal.NewWindow(f.buf), nil
}

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
