package ascal

import (
	"fmt"
	"image"
)

// ReadRGBA decodes the full active frame into an RGBA image of
// width x height. Alpha is always opaque.
func ReadRGBA(w *Window, h FrameHeader, img *image.RGBA) error {
	f := h.Format
	if !f.HasColor() {
		return fmt.Errorf("%w: code %#02x", ErrUnsupportedFormat, h.FormatCode)
	}
	if img.Rect.Dx() < h.Width || img.Rect.Dy() < h.Height {
		return fmt.Errorf("destination %v smaller than frame %s", img.Rect.Size(), h.Resolution())
	}

	bpp := f.BytesPerPixel
	group := f.GroupPixels
	lineBytes := h.Width * bpp
	if rem := h.Width % group; rem != 0 {
		lineBytes += (group - rem) * bpp
	}
	line := make([]byte, lineBytes)

	for y := 0; y < h.Height; y++ {
		if err := w.CopyAt(h.FrameBase()+y*h.Stride, line); err != nil {
			return fmt.Errorf("read line %d: %w", y, err)
		}
		out := img.Pix[y*img.Stride : y*img.Stride+h.Width*4]
		for x := 0; x < h.Width; x++ {
			sub := x % group
			start := (x - sub) * bpp
			c := f.Decode(line[start:start+f.FetchSize()], sub)
			o := out[x*4 : x*4+4]
			o[0], o[1], o[2], o[3] = c.R, c.G, c.B, 0xff
		}
	}
	return nil
}
