// Package render draws page descriptions: gonum/plot charts and PDF reports,
// and a plain-text rendering for terminals.
package render

import (
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/zalepa/infractions/choropleth"
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/palette"
	"github.com/zalepa/infractions/series"
)

// Size is the output size of a chart.
type Size struct {
	Width, Height vg.Length
}

// DefaultSize is a 10x6 inch chart.
var DefaultSize = Size{Width: 10 * vg.Inch, Height: 6 * vg.Inch}

// Formats lists the file formats Save and Write accept.
var Formats = []string{"png", "svg", "pdf"}

const maxBubbleRadius = 28

// Plot builds a chart for d. Map descriptions draw region outlines from b when
// it holds them, and capital-city markers otherwise.
func Plot(d series.Description, b choropleth.Boundaries) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = pdfSafe(d.Title)
	p.Title.TextStyle.Font.Size = vg.Points(13)
	p.BackgroundColor = color.White
	p.X.Label.Text = d.XLabel
	p.Y.Label.Text = d.YLabel
	p.Legend.Top = true

	if d.Message != "" {
		p.Title.Text = pdfSafe(d.Title + ": " + d.Message)
		p.HideAxes()
		return p, nil
	}

	var err error
	switch d.Kind {
	case series.Line:
		err = addLines(p, d)
	case series.Bubble:
		err = addBubbles(p, d)
	case series.Lollipop:
		err = addLollipops(p, d)
	case series.Bar:
		err = addBars(p, d, false)
	case series.Choropleth:
		err = addRegions(p, d, b)
	default:
		err = eris.Errorf("render: unsupported chart kind %q", d.Kind)
	}
	if err != nil {
		return nil, err
	}

	for _, g := range d.Guides {
		if err := addGuide(p, d, g); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Bars builds the horizontal bar chart drawn beside a map, one bar per region
// in item order.
func Bars(d series.Description) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = pdfSafe(d.Title)
	p.BackgroundColor = color.White
	p.X.Label.Text = d.YLabel
	if d.Message != "" {
		p.HideAxes()
		return p, nil
	}
	if err := addBars(p, d, true); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes a chart of d to path. The format follows the file extension.
func Save(path string, d series.Description, b choropleth.Boundaries, size Size) error {
	if _, err := format(path); err != nil {
		return err
	}
	p, err := Plot(d, b)
	if err != nil {
		return err
	}
	if err := p.Save(size.Width, size.Height, path); err != nil {
		return eris.Wrapf(err, "render: save %s", path)
	}
	return nil
}

// Write encodes a chart of d to w in the named format.
func Write(w io.Writer, ext string, d series.Description, b choropleth.Boundaries, size Size) error {
	ext, err := format("." + ext)
	if err != nil {
		return err
	}
	p, err := Plot(d, b)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(size.Width, size.Height, ext)
	if err != nil {
		return eris.Wrap(err, "render: encode chart")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return eris.Wrap(err, "render: write chart")
	}
	return nil
}

func format(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range Formats {
		if f == ext {
			return ext, nil
		}
	}
	return "", eris.Errorf("render: unsupported format %q", ext)
}

// pdfSafe replaces dashes the embedded font does not render.
func pdfSafe(s string) string {
	s = strings.ReplaceAll(s, "—", "-")
	return strings.ReplaceAll(s, "–", "-")
}

// fill returns the item colour faded by its emphasis.
func fill(it series.Item) color.Color {
	c, err := palette.ParseHex(it.Color)
	if err != nil {
		c = palette.Neutral
	}
	return palette.WithOpacity(c, it.Emphasis.Opacity)
}

func stroke(it series.Item) vg.Length {
	if it.Emphasis.StrokeWidth <= 0 {
		return vg.Points(1)
	}
	return vg.Points(it.Emphasis.StrokeWidth)
}

func setY(p *plot.Plot, d series.Description) {
	if d.Domain.Valid {
		p.Y.Min, p.Y.Max = d.Domain.Min, d.Domain.Max
	}
	p.Y.Tick.Marker = numTicks{}
}

func addLines(p *plot.Plot, d series.Description) error {
	var labels []string
	for _, it := range d.Items {
		var pts plotter.XYs
		for _, pt := range it.Points {
			if pt.Value.Valid {
				pts = append(pts, plotter.XY{X: pt.X, Y: pt.Value.Value})
			}
		}
		if len(labels) == 0 {
			for _, pt := range it.Points {
				labels = append(labels, pt.Label)
			}
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return eris.Wrapf(err, "render: line %s", it.Key)
		}
		line.Color = fill(it)
		line.Width = stroke(it)

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return eris.Wrapf(err, "render: points %s", it.Key)
		}
		scatter.Color = fill(it)
		scatter.Radius = vg.Points(2)
		scatter.Shape = draw.CircleGlyph{}

		p.Add(line, scatter)
		p.Legend.Add(it.Label, line)
	}
	p.Add(plotter.NewGrid())
	setY(p, d)
	if d.XDomain.Valid {
		p.X.Min, p.X.Max = d.XDomain.Min-0.5, d.XDomain.Max+0.5
	}
	p.X.Tick.Marker = labelTicks{labels: labels, offset: 1}
	return nil
}

// bubbleRadius scales glyph area with size relative to the largest bubble.
func bubbleRadius(size, largest float64) vg.Length {
	if largest <= 0 || size <= 0 {
		return vg.Points(4)
	}
	return vg.Points(math.Max(4, maxBubbleRadius*math.Sqrt(size/largest)))
}

func addBubbles(p *plot.Plot, d series.Description) error {
	var largest float64
	for _, it := range d.Items {
		largest = math.Max(largest, it.Size)
	}
	for i, it := range d.Items {
		if !it.Value.Valid {
			continue
		}
		x := it.X
		if d.Categorical {
			x = float64(i)
		}
		s, err := plotter.NewScatter(plotter.XYs{{X: x, Y: it.Value.Value}})
		if err != nil {
			return eris.Wrapf(err, "render: bubble %s", it.Key)
		}
		s.GlyphStyle = draw.GlyphStyle{
			Color:  fill(it),
			Radius: bubbleRadius(it.Size, largest),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(s)
		p.Legend.Add(it.Label, s)
	}
	p.Add(plotter.NewGrid())
	setY(p, d)
	if d.Categorical {
		p.X.Tick.Marker = labelTicks{labels: itemLabels(d)}
		p.X.Min, p.X.Max = -0.5, float64(len(d.Items))-0.5
	} else if d.XDomain.Valid {
		p.X.Min, p.X.Max = d.XDomain.Min, d.XDomain.Max
	}
	return nil
}

func itemLabels(d series.Description) []string {
	out := make([]string, len(d.Items))
	for i, it := range d.Items {
		out[i] = it.Label
	}
	return out
}

func addLollipops(p *plot.Plot, d series.Description) error {
	for i, it := range d.Items {
		if !it.Value.Valid {
			continue
		}
		x := float64(i)
		stem, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: it.Value.Value}})
		if err != nil {
			return eris.Wrapf(err, "render: stem %s", it.Key)
		}
		stem.Color = fill(it)
		stem.Width = vg.Points(3)

		head, err := plotter.NewScatter(plotter.XYs{{X: x, Y: it.Value.Value}})
		if err != nil {
			return eris.Wrapf(err, "render: head %s", it.Key)
		}
		head.GlyphStyle = draw.GlyphStyle{Color: fill(it), Radius: vg.Points(6), Shape: draw.CircleGlyph{}}
		p.Add(stem, head)
	}
	p.Add(plotter.NewGrid())
	setY(p, d)
	if d.Domain.Valid {
		p.Y.Max = d.Domain.Max * 1.1
	}
	p.X.Tick.Marker = labelTicks{labels: itemLabels(d)}
	p.X.Min, p.X.Max = -0.5, float64(len(d.Items))-0.5
	return nil
}

// addBars draws one bar per item, in item order. Horizontal bars list the
// first item at the top.
func addBars(p *plot.Plot, d series.Description, horizontal bool) error {
	n := len(d.Items)
	for i, it := range d.Items {
		v := 0.0
		if it.Value.Valid {
			v = it.Value.Value
		}
		bar, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(14))
		if err != nil {
			return eris.Wrapf(err, "render: bar %s", it.Key)
		}
		bar.Color = fill(it)
		bar.LineStyle.Width = 0
		bar.Horizontal = horizontal
		bar.XMin = float64(i)
		if horizontal {
			bar.XMin = float64(n - 1 - i)
		}
		p.Add(bar)
	}

	labels := itemLabels(d)
	if horizontal {
		rev := make([]string, n)
		for i, l := range labels {
			rev[n-1-i] = l
		}
		p.NominalY(rev...)
		if d.Domain.Valid {
			p.X.Min, p.X.Max = math.Min(0, d.Domain.Min), d.Domain.Max
		}
		p.X.Tick.Marker = numTicks{}
		return nil
	}
	p.NominalX(labels...)
	setY(p, d)
	p.Y.Min = math.Min(0, p.Y.Min)
	return nil
}

// addRegions draws map regions filled by value. Regions without an outline
// become markers at their capital.
func addRegions(p *plot.Plot, d series.Description, b choropleth.Boundaries) error {
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	for _, it := range d.Items {
		if mp, ok := b[it.Key]; ok {
			for i := 0; i < mp.NumPolygons(); i++ {
				poly := mp.Polygon(i)
				var rings []plotter.XYer
				for j := 0; j < poly.NumLinearRings(); j++ {
					rings = append(rings, ringXYs(poly.LinearRing(j).FlatCoords()))
				}
				shape, err := plotter.NewPolygon(rings...)
				if err != nil {
					return eris.Wrapf(err, "render: outline %s", it.Key)
				}
				shape.Color = fill(it)
				shape.LineStyle.Color = color.Gray{Y: 90}
				shape.LineStyle.Width = stroke(it) / 2
				p.Add(shape)
			}
			continue
		}

		j, ok := dataset.LookupJurisdiction(it.Key)
		if !ok {
			continue
		}
		marker, err := plotter.NewScatter(plotter.XYs{{X: j.Lng, Y: j.Lat}})
		if err != nil {
			return eris.Wrapf(err, "render: marker %s", it.Key)
		}
		marker.GlyphStyle = draw.GlyphStyle{
			Color:  fill(it),
			Radius: vg.Points(choropleth.MarkerRadius(it.Value, d.Domain) / 2),
			Shape:  draw.CircleGlyph{},
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    []plotter.XY{{X: j.Lng, Y: j.Lat}},
			Labels: []string{it.Label + " " + it.Text},
		})
		if err != nil {
			return eris.Wrapf(err, "render: marker label %s", it.Key)
		}
		p.Add(marker, labels)
	}
	if len(b) == 0 {
		p.X.Min, p.X.Max = 112, 155
		p.Y.Min, p.Y.Max = -45, -9
	}
	return nil
}

func ringXYs(flat []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		pts = append(pts, plotter.XY{X: flat[i], Y: flat[i+1]})
	}
	return pts
}

func addGuide(p *plot.Plot, d series.Description, g series.Guide) error {
	var pts plotter.XYs
	switch g.Axis {
	case "x":
		if !d.Domain.Valid {
			return nil
		}
		pts = plotter.XYs{{X: g.Value, Y: d.Domain.Min}, {X: g.Value, Y: d.Domain.Max}}
	case "y":
		if !d.XDomain.Valid {
			return nil
		}
		pts = plotter.XYs{{X: d.XDomain.Min, Y: g.Value}, {X: d.XDomain.Max, Y: g.Value}}
	default:
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return eris.Wrap(err, "render: guide")
	}
	line.Color = color.Gray{Y: 150}
	line.Width = vg.Points(1)
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(line)
	return nil
}
