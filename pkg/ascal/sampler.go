package ascal

import "fmt"

// FNV-1a 64-bit parameters.
const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

// EmptyFingerprint is the fingerprint of a frame with no samples.
const EmptyFingerprint = fnvOffset

// baseJitterStride rotates the grid phase between frames so static sub-grid
// patterns do not alias.
const baseJitterStride = 7

// jitterStride returns the smallest stride from baseJitterStride up that is
// coprime with slots, so the rotation visits every slot once per period.
func jitterStride(slots int) int {
	s := baseJitterStride
	for gcd(s, slots) != 1 {
		s++
	}
	return s
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// SampleGrid selects which pixels are sampled: every Step-th pixel on both
// axes, starting at (PhaseX, PhaseY).
type SampleGrid struct {
	Step   int
	PhaseX int
	PhaseY int
}

// GridFor derives the grid of frame frameIndex. Without jitter the phase is
// always zero.
func GridFor(step int, frameIndex uint64, jitter bool) SampleGrid {
	if step < 1 {
		step = 1
	}
	g := SampleGrid{Step: step}
	if jitter && step > 1 {
		slots := step * step
		slot := int((frameIndex % uint64(slots)) * uint64(jitterStride(slots)) % uint64(slots))
		g.PhaseX = slot % step
		g.PhaseY = slot / step
	}
	return g
}

// Slot identifies the grid phase; fingerprints are only comparable between
// samples taken with the same slot.
func (g SampleGrid) Slot() int {
	return g.PhaseY*g.Step + g.PhaseX
}

// Sample is the result of one pass over a frame.
type Sample struct {
	Grid        SampleGrid
	Fingerprint uint64
	Samples     int
	// Colored is false when the format has no RGB decode path; Dominant is
	// then meaningless.
	Colored       bool
	Dominant      RGB
	DominantCount int
	// Clamped is set when part of the described frame lay outside the window.
	Clamped bool
}

// Sampler fingerprints frames and estimates their dominant color. It owns
// its histogram, which is rebuilt on every call. A Sampler is not safe for
// concurrent use.
type Sampler struct {
	hist  Histogram
	fetch [4]byte
}

// NewSampler creates a sampler.
func NewSampler() *Sampler {
	return &Sampler{}
}

// Histogram returns the histogram built by the last call to Sample.
func (s *Sampler) Histogram() *Histogram {
	return &s.hist
}

// Sample walks the grid over the frame described by h. Degenerate geometry
// yields an empty sample with EmptyFingerprint. Pixels that would fall
// outside the window are skipped rather than read.
func (s *Sampler) Sample(w *Window, h FrameHeader, g SampleGrid) (Sample, error) {
	s.hist.Reset()
	if g.Step < 1 {
		g.Step = 1
	}
	res := Sample{Grid: g, Fingerprint: EmptyFingerprint}

	f := h.Format
	if f == nil {
		return res, fmt.Errorf("%w: code %#02x", ErrUnsupportedFormat, h.FormatCode)
	}
	res.Colored = f.HasColor()
	if h.Width <= 0 || h.Height <= 0 || h.Stride <= 0 {
		return res, nil
	}

	bpp := f.BytesPerPixel
	group := f.GroupPixels
	fetch := s.fetch[:f.FetchSize()]
	base := h.FrameBase()
	limit := w.Len()

	// A line can never be wider than its stride.
	width := h.Width
	if maxW := h.Stride / bpp; width > maxW {
		width = maxW
		res.Clamped = true
	}

	hash := fnvOffset
	for y := g.PhaseY; y < h.Height; y += g.Step {
		row := base + y*h.Stride
		if row+len(fetch) > limit {
			res.Clamped = true
			break
		}
		for x := g.PhaseX; x < width; x += g.Step {
			sub := x % group
			off := row + (x-sub)*bpp
			if off+len(fetch) > limit {
				res.Clamped = true
				break
			}
			if err := w.CopyAt(off, fetch); err != nil {
				return res, err
			}
			if res.Colored {
				c := f.Decode(fetch, sub)
				hash = fold(hash, c.R)
				hash = fold(hash, c.G)
				hash = fold(hash, c.B)
				s.hist.Add(c)
			} else {
				for _, b := range fetch {
					hash = fold(hash, b)
				}
			}
			res.Samples++
		}
	}

	res.Fingerprint = hash
	if _, c, n, ok := s.hist.Dominant(); ok {
		res.Dominant = c
		res.DominantCount = n
	}
	return res, nil
}

func fold(h uint64, b uint8) uint64 {
	h ^= uint64(b)
	return h * fnvPrime
}
