package ascal

// Histogram quantization: 4 bits per channel.
const (
	histBits    = 4
	histBuckets = 1 << (3 * histBits)
)

// Bucket is a quantized color, 0xRGB with one nibble per channel.
type Bucket uint16

// BucketOf quantizes c.
func BucketOf(c RGB) Bucket {
	return Bucket(c.R>>4)<<8 | Bucket(c.G>>4)<<4 | Bucket(c.B>>4)
}

// Expand de-quantizes the bucket by nibble replication (0xA -> 0xAA).
func (b Bucket) Expand() RGB {
	return RGB{
		R: uint8(b>>8&0xf) * 17,
		G: uint8(b>>4&0xf) * 17,
		B: uint8(b&0xf) * 17,
	}
}

// Histogram counts sampled colors per bucket. It also keeps per-bucket
// channel sums so the dominant color can be reported at full precision.
// The zero value is empty and ready to use.
type Histogram struct {
	counts [histBuckets]uint32
	sums   [histBuckets][3]uint64
	total  int
}

// Reset empties the histogram.
func (h *Histogram) Reset() {
	if h.total == 0 {
		return
	}
	h.counts = [histBuckets]uint32{}
	h.sums = [histBuckets][3]uint64{}
	h.total = 0
}

// Add counts one sample.
func (h *Histogram) Add(c RGB) {
	b := BucketOf(c)
	h.counts[b]++
	s := &h.sums[b]
	s[0] += uint64(c.R)
	s[1] += uint64(c.G)
	s[2] += uint64(c.B)
	h.total++
}

// Total returns the number of samples counted.
func (h *Histogram) Total() int {
	return h.total
}

// Count returns the number of samples in bucket b.
func (h *Histogram) Count(b Bucket) int {
	return int(h.counts[b])
}

// Dominant returns the bucket with the highest count, the lowest bucket
// winning ties, together with the mean color of its samples. ok is false for
// an empty histogram.
func (h *Histogram) Dominant() (b Bucket, color RGB, count int, ok bool) {
	if h.total == 0 {
		return 0, RGB{}, 0, false
	}
	best := 0
	for i := 1; i < histBuckets; i++ {
		if h.counts[i] > h.counts[best] {
			best = i
		}
	}
	n := uint64(h.counts[best])
	s := h.sums[best]
	color = RGB{
		R: uint8((s[0] + n/2) / n),
		G: uint8((s[1] + n/2) / n),
		B: uint8((s[2] + n/2) / n),
	}
	return Bucket(best), color, int(n), true
}
