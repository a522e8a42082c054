package palette

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codes = []string{"NSW", "VIC", "QLD", "WA", "SA", "TAS", "ACT", "NT"}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		err  bool
	}{
		{"#4e79a7", color.RGBA{0x4e, 0x79, 0xa7, 0xff}, false},
		{"0072B2", color.RGBA{0x00, 0x72, 0xb2, 0xff}, false},
		{"#eee", color.RGBA{0xee, 0xee, 0xee, 0xff}, false},
		{"#12345", color.RGBA{}, true},
		{"#zzzzzz", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "#eeeeee", Hex(NoData))
}

func TestAssignmentIsStable(t *testing.T) {
	a := NewAssignment(Tableau10, OkabeIto, codes...)

	for i, k := range codes {
		slot, ok := a.Slot(k)
		require.True(t, ok)
		assert.Equal(t, i, slot)
		assert.Equal(t, Tableau10[i], a.Color(k, false))
		assert.Equal(t, OkabeIto[i], a.Color(k, true))
	}

	// Toggling the colour-blind palette on and off restores every colour.
	for _, k := range codes {
		before := a.Color(k, false)
		_ = a.Color(k, true)
		assert.Equal(t, before, a.Color(k, false))
	}

	assert.Equal(t, Neutral, a.Color("NZ", false))
}

func TestAssignmentWrapsAndDedupes(t *testing.T) {
	keys := []string{"a", "b", "a", "c"}
	a := NewAssignment(MustParse("#000000", "#ffffff"), nil, keys...)
	slot, _ := a.Slot("c")
	assert.Equal(t, 2, slot)
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, a.Color("c", false))
	assert.Equal(t, a.Color("c", false), a.Color("c", true), "no colour-blind palette falls back to standard")
}

func TestRamp(t *testing.T) {
	assert.Equal(t, "#f7fbff", Hex(Blues.At(0)))
	assert.Equal(t, "#08306b", Hex(Blues.At(1)))
	assert.Equal(t, "#08306b", Hex(Blues.At(7)))
	assert.Equal(t, "#ffffcc", Hex(YlOrRd.At(-1)))
	assert.Equal(t, "#fb6a4a", Hex(Reds.At(0.5)))

	mid := YlOrRd.At(1.0 / 16)
	assert.Equal(t, color.RGBA{0xff, 0xf6, 0xb6, 0xff}, mid)

	stops := Reds.Stops(3)
	require.Len(t, stops, 3)
	assert.Equal(t, Reds.At(0), stops[0])
	assert.Equal(t, Reds.At(1), stops[2])
}

func TestWithOpacity(t *testing.T) {
	c := WithOpacity(Tableau10[0], 0.1)
	assert.Equal(t, uint8(26), c.A)
	assert.Equal(t, Tableau10[0].R, c.R)
	assert.Equal(t, uint8(255), WithOpacity(Tableau10[0], 3).A)
}
