package monitor

import "github.com/smazurov/scalerwatch/pkg/ascal"

type namedColor struct {
	name string
	rgb  ascal.RGB
}

// palette is the fixed set of names a dominant color is reported as.
var palette = [...]namedColor{
	{"black", ascal.RGB{R: 0x00, G: 0x00, B: 0x00}},
	{"navy", ascal.RGB{R: 0x00, G: 0x00, B: 0x80}},
	{"blue", ascal.RGB{R: 0x00, G: 0x00, B: 0xFF}},
	{"green", ascal.RGB{R: 0x00, G: 0x80, B: 0x00}},
	{"teal", ascal.RGB{R: 0x00, G: 0x80, B: 0x80}},
	{"lime", ascal.RGB{R: 0x00, G: 0xFF, B: 0x00}},
	{"cyan", ascal.RGB{R: 0x00, G: 0xFF, B: 0xFF}},
	{"maroon", ascal.RGB{R: 0x80, G: 0x00, B: 0x00}},
	{"purple", ascal.RGB{R: 0x80, G: 0x00, B: 0x80}},
	{"olive", ascal.RGB{R: 0x80, G: 0x80, B: 0x00}},
	{"gray", ascal.RGB{R: 0x80, G: 0x80, B: 0x80}},
	{"silver", ascal.RGB{R: 0xC0, G: 0xC0, B: 0xC0}},
	{"red", ascal.RGB{R: 0xFF, G: 0x00, B: 0x00}},
	{"magenta", ascal.RGB{R: 0xFF, G: 0x00, B: 0xFF}},
	{"orange", ascal.RGB{R: 0xFF, G: 0xA5, B: 0x00}},
	{"yellow", ascal.RGB{R: 0xFF, G: 0xFF, B: 0x00}},
	{"brown", ascal.RGB{R: 0x8B, G: 0x45, B: 0x13}},
	{"pink", ascal.RGB{R: 0xFF, G: 0xC0, B: 0xCB}},
	{"white", ascal.RGB{R: 0xFF, G: 0xFF, B: 0xFF}},
}

// ColorName returns the palette entry nearest to c in RGB space. Ties go to
// the earlier entry.
func ColorName(c ascal.RGB) string {
	best := 0
	bestDist := -1
	for i, p := range palette {
		dr := int(c.R) - int(p.rgb.R)
		dg := int(c.G) - int(p.rgb.G)
		db := int(c.B) - int(p.rgb.B)
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return palette[best].name
}
