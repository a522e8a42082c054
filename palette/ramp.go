package palette

import (
	"image/color"
	"math"
)

// Ramp is a sequential colour scale over [0, 1], defined by evenly spaced
// stops and interpolated linearly between them.
type Ramp struct {
	Name  string
	stops Palette
}

// ColorBrewer 9-class sequential schemes.
var (
	Blues = Ramp{Name: "Blues", stops: MustParse(
		"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6",
		"#4292c6", "#2171b5", "#08519c", "#08306b",
	)}
	Reds = Ramp{Name: "Reds", stops: MustParse(
		"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a",
		"#ef3b2c", "#cb181d", "#a50f15", "#67000d",
	)}
	YlOrRd = Ramp{Name: "YlOrRd", stops: MustParse(
		"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c",
		"#fc4e2a", "#e31a1c", "#bd0026", "#800026",
	)}
)

// At returns the colour at t, clamped to [0, 1].
func (r Ramp) At(t float64) color.RGBA {
	n := len(r.stops)
	if n == 0 {
		return Neutral
	}
	if math.IsNaN(t) || t <= 0 {
		return r.stops[0]
	}
	if t >= 1 {
		return r.stops[n-1]
	}
	pos := t * float64(n-1)
	i := int(pos)
	f := pos - float64(i)
	a, b := r.stops[i], r.stops[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, f),
		G: lerp(a.G, b.G, f),
		B: lerp(a.B, b.B, f),
		A: 0xff,
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// Stops samples n colours evenly across the ramp, for legends.
func (r Ramp) Stops(n int) []color.RGBA {
	if n < 2 {
		n = 2
	}
	out := make([]color.RGBA, n)
	for i := range out {
		out[i] = r.At(float64(i) / float64(n-1))
	}
	return out
}
