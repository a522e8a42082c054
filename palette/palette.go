// Package palette assigns stable colours to categories and maps values onto
// sequential colour ramps.
package palette

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Palette is an ordered list of categorical colours.
type Palette []color.RGBA

var (
	// Tableau10 is the standard categorical palette.
	Tableau10 = MustParse(
		"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f",
		"#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab",
	)

	// OkabeIto is the colour-blind safe palette.
	OkabeIto = MustParse(
		"#0072B2", "#009E73", "#F0E442", "#E69F00",
		"#56B4E9", "#CC79A7", "#D55E00", "#000000",
	)

	// AgeGroups colours the five age groups in display order.
	AgeGroups = MustParse("#10b981", "#3b82f6", "#f59e0b", "#ef4444", "#8b5cf6")

	// Neutral is used for keys outside an assignment.
	Neutral = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}

	// NoData fills map regions without a value.
	NoData = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
)

// At returns the colour for slot i, wrapping around the palette.
func (p Palette) At(i int) color.RGBA {
	if len(p) == 0 || i < 0 {
		return Neutral
	}
	return p[i%len(p)]
}

// ParseHex parses "#rrggbb" or "#rgb".
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, eris.Errorf("palette: invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, eris.Errorf("palette: invalid colour %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// MustParse builds a palette from hex strings and panics on a malformed one.
func MustParse(hex ...string) Palette {
	p := make(Palette, len(hex))
	for i, h := range hex {
		c, err := ParseHex(h)
		if err != nil {
			panic(err)
		}
		p[i] = c
	}
	return p
}

// Hex formats c as "#rrggbb".
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// WithOpacity returns c with its alpha scaled by opacity.
func WithOpacity(c color.RGBA, opacity float64) color.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(float64(c.A)*opacity + 0.5)}
}

// Assignment maps category keys to palette slots. The slot of a key is its
// position in the full category list the assignment was built from, so a key
// keeps its colour no matter which other categories are shown, and the same
// slot is used in both the standard and the colour-blind palette.
type Assignment struct {
	slots      map[string]int
	standard   Palette
	colorBlind Palette
}

// NewAssignment assigns slots to keys in order. Duplicate keys keep their
// first slot.
func NewAssignment(standard, colorBlind Palette, keys ...string) Assignment {
	a := Assignment{
		slots:      make(map[string]int, len(keys)),
		standard:   standard,
		colorBlind: colorBlind,
	}
	for _, k := range keys {
		if _, ok := a.slots[k]; !ok {
			a.slots[k] = len(a.slots)
		}
	}
	return a
}

// Slot returns the key's slot index.
func (a Assignment) Slot(key string) (int, bool) {
	i, ok := a.slots[key]
	return i, ok
}

// Color returns the key's colour in the standard or colour-blind palette.
func (a Assignment) Color(key string, colorBlind bool) color.RGBA {
	i, ok := a.slots[key]
	if !ok {
		return Neutral
	}
	if colorBlind && len(a.colorBlind) > 0 {
		return a.colorBlind.At(i)
	}
	return a.standard.At(i)
}
