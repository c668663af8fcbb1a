// Package capture reads one complete scaler frame and writes it out as an
// image file.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/smazurov/scalerwatch/internal/events"
	"github.com/smazurov/scalerwatch/internal/logging"
	"github.com/smazurov/scalerwatch/pkg/ascal"
)

// Defaults matching the MiSTer screenshot tool.
const (
	DefaultDir       = "/tmp/screenshots"
	DefaultName      = "MiSTer_small.png"
	DefaultMaxPixels = 4096 * 4096
)

var (
	// ErrAllocation is returned when the frame buffer for a capture cannot be
	// allocated within the configured bound.
	ErrAllocation = errors.New("frame buffer allocation failed")

	// ErrEmptyFrame is returned when the header reports a zero-sized frame.
	ErrEmptyFrame = errors.New("scaler reports an empty frame")
)

// Sink receives a decoded frame.
type Sink interface {
	// Write stores img under name and returns where it ended up.
	Write(name string, img image.Image) (string, error)
}

// Options configure a capture.
type Options struct {
	Name      string // file name handed to the sink, DefaultName when empty
	MaxPixels int    // upper bound on width*height, DefaultMaxPixels when zero
	Bus       *events.Bus
	Logger    logging.Logger
}

// Result describes a finished capture.
type Result struct {
	Path   string
	Header ascal.FrameHeader
}

// Frame parses the header and decodes the active frame into a new RGBA image.
func Frame(w *ascal.Window, layout ascal.Layout, maxPixels int) (*image.RGBA, ascal.FrameHeader, error) {
	hdr, err := layout.Parse(w)
	if err != nil {
		return nil, hdr, err
	}
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, hdr, fmt.Errorf("%w: %s", ErrEmptyFrame, hdr.Resolution())
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if hdr.Width*hdr.Height > maxPixels {
		return nil, hdr, fmt.Errorf("%w: %s exceeds %d pixels", ErrAllocation, hdr.Resolution(), maxPixels)
	}

	img := image.NewRGBA(image.Rect(0, 0, hdr.Width, hdr.Height))
	if err := ascal.ReadRGBA(w, hdr, img); err != nil {
		return nil, hdr, fmt.Errorf("decode frame: %w", err)
	}
	return img, hdr, nil
}

// Capture grabs one frame from w and hands it to sink.
func Capture(w *ascal.Window, layout ascal.Layout, sink Sink, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("capture")
	}
	name := opts.Name
	if name == "" {
		name = DefaultName
	}

	start := time.Now()
	img, hdr, err := Frame(w, layout, opts.MaxPixels)
	if err != nil {
		return Result{Header: hdr}, err
	}

	path, err := sink.Write(name, img)
	if err != nil {
		return Result{Header: hdr}, fmt.Errorf("write %s: %w", name, err)
	}

	logger.Info("Frame captured",
		"path", path,
		"resolution", hdr.Resolution(),
		"format", hdr.Format.String(),
		"layout", hdr.Layout,
		"duration", time.Since(start))

	opts.Bus.Publish(events.CaptureCompletedEvent{
		Path:       path,
		Resolution: hdr.Resolution(),
		Timestamp:  time.Now(),
	})
	return Result{Path: path, Header: hdr}, nil
}

// PNGSink writes frames as PNG files below Dir.
type PNGSink struct {
	Dir string
}

// Write encodes img into Dir/name, creating Dir if needed.
func (s PNGSink) Write(name string, img image.Image) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
