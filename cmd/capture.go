package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/smazurov/scalerwatch/internal/capture"
	"github.com/smazurov/scalerwatch/internal/logging"
	"github.com/smazurov/scalerwatch/pkg/ascal"
	"github.com/spf13/cobra"
)

// openWindow is replaced in tests.
var openWindow = ascal.OpenWindow

type captureFlags struct {
	base      string
	size      string
	layout    string
	large     bool
	readWrite bool
	dir       string
	maxPixels int
}

// CreateCaptureCmd creates the capture command.
func CreateCaptureCmd() *cobra.Command {
	var flags captureFlags

	cmd := &cobra.Command{
		Use:   "capture [filename]",
		Short: "Save the current scaler frame as PNG",
		Long: `Maps the scaler window, decodes the active frame to RGBA and writes it ` +
			`as a PNG file. The file name defaults to ` + capture.DefaultName + `.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(c *cobra.Command, args []string) {
			name := capture.DefaultName
			if len(args) == 1 {
				name = args[0]
			}
			if err := runCapture(c.ErrOrStderr(), flags, name); err != nil {
				logging.GetLogger("capture").Error("Capture failed", "error", err)
				os.Exit(ExitCode(err))
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.base, "base", fmt.Sprintf("%#x", ascal.DefaultBaseAddress), "Physical base address of the scaler window")
	f.StringVar(&flags.size, "size", "0", "Bytes to map (0 selects the default window)")
	f.StringVar(&flags.layout, "layout", ascal.LayoutAuto, "Header layout: auto, ascl, ascal or legacy")
	f.BoolVar(&flags.large, "large-buffers", false, "Use the large triple-buffer offsets")
	f.BoolVar(&flags.readWrite, "rw", false, "Map the window read-write")
	f.StringVarP(&flags.dir, "dir", "d", capture.DefaultDir, "Output directory")
	f.IntVar(&flags.maxPixels, "max-pixels", capture.DefaultMaxPixels, "Refuse frames larger than this many pixels")
	return cmd
}

func runCapture(stderr io.Writer, flags captureFlags, name string) error {
	base, err := ParseAddress(flags.base)
	if err != nil {
		return err
	}
	size, err := ParseAddress(flags.size)
	if err != nil {
		return err
	}
	mode := ascal.AccessReadOnly
	if flags.readWrite {
		mode = ascal.AccessReadWrite
	}

	w, err := openWindow(base, WindowSize(size, flags.large), mode)
	if err != nil {
		return err
	}
	defer w.Close()

	layout, hdr, err := ascal.ResolveLayout(w, flags.layout, HeaderConfig(flags.large))
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "%s header: %s %d-bit %s stride %d output %dx%d buffer %d\n",
		layout.Name(), hdr.Resolution(), hdr.BitDepth(), hdr.Format, hdr.Stride,
		hdr.OutputWidth, hdr.OutputHeight, hdr.BufferIndex)

	res, err := capture.Capture(w, layout, capture.PNGSink{Dir: flags.dir}, capture.Options{
		Name:      name,
		MaxPixels: flags.maxPixels,
		Logger:    logging.GetLogger("capture"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "saved: %s\n", res.Path)
	return nil
}
