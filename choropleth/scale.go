// Package choropleth colours map regions on a sequential scale whose domain is
// fixed across every mode and year of a dataset.
package choropleth

import (
	"image/color"
	"math"

	"github.com/zalepa/infractions/aggregate"
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/palette"
	"github.com/zalepa/infractions/series"
)

// LegendStops is the number of gradient samples in a legend.
const LegendStops = 9

// GlobalDomain returns the extent of every value passed, whatever mode or
// year it belongs to. Absent values are skipped.
func GlobalDomain(values ...dataset.Number) aggregate.Domain {
	var d aggregate.Domain
	for _, v := range values {
		if v.Valid {
			d.Include(v.Value)
		}
	}
	return d
}

// Scale maps values onto a ramp over a fixed domain.
type Scale struct {
	Domain aggregate.Domain
	Ramp   palette.Ramp
}

// Fill returns the region colour for v, or the no-data colour when v is absent
// or the domain is empty.
func (s Scale) Fill(v dataset.Number) color.RGBA {
	if !v.Valid || !s.Domain.Valid {
		return palette.NoData
	}
	return s.Ramp.At(s.Domain.Normalize(v.Value))
}

// Legend describes the scale for renderers. The bounds are rounded outward to
// whole numbers, as the legend labels show them.
func (s Scale) Legend() *series.Scale {
	stops := s.Ramp.Stops(LegendStops)
	hex := make([]string, len(stops))
	for i, c := range stops {
		hex[i] = palette.Hex(c)
	}
	d := s.Domain
	if d.Valid {
		d.Min = math.Floor(d.Min)
		d.Max = math.Ceil(d.Max)
	}
	return &series.Scale{
		Ramp:   s.Ramp.Name,
		Domain: d,
		Stops:  hex,
		NoData: palette.Hex(palette.NoData),
	}
}
