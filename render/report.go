package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/zalepa/infractions/choropleth"
	"github.com/zalepa/infractions/series"
)

const (
	pageWidth  = 11 * vg.Inch
	pageHeight = 8.5 * vg.Inch
	pdfMargin  = 0.6 * vg.Inch
)

var chartBlue = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// Report writes a PDF with a summary page followed by one page per
// description. Map pages carry their bar chart beside the map.
func Report(w io.Writer, ds []series.Description, b choropleth.Boundaries) error {
	if len(ds) == 0 {
		return eris.New("render: nothing to report")
	}
	c := vgpdf.New(pageWidth, pageHeight)
	drawSummaryPage(c, ds)
	for _, d := range ds {
		c.NextPage()
		if err := drawChartPage(c, d, b); err != nil {
			return err
		}
	}
	if _, err := c.WriteTo(w); err != nil {
		return eris.Wrap(err, "render: write report")
	}
	return nil
}

// ReportPages is the number of pages Report writes for n descriptions.
func ReportPages(n int) int { return n + 1 }

// WriteReport writes the report to path and reads it back to check that
// every page made it into the file.
func WriteReport(path string, ds []series.Description, b choropleth.Boundaries) error {
	var buf bytes.Buffer
	if err := Report(&buf, ds, b); err != nil {
		return err
	}
	n, err := CountPages(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	if want := ReportPages(len(ds)); n != want {
		return eris.Errorf("render: report has %d pages, want %d", n, want)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "render: write %s", path)
	}
	zap.L().Info("report written", zap.String("path", path), zap.Int("pages", n))
	return nil
}

// CountPages parses a PDF and returns its page count.
func CountPages(rs io.ReadSeeker) (int, error) {
	ctx, err := pdfcpu.Read(rs, model.NewDefaultConfiguration())
	if err != nil {
		return 0, eris.Wrap(err, "render: read pdf")
	}
	if err := pdfcpu.OptimizeXRefTable(ctx); err != nil {
		return 0, eris.Wrap(err, "render: optimize xref")
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, eris.Wrap(err, "render: page count")
	}
	return ctx.PageCount, nil
}

func drawChartPage(c *vgpdf.Canvas, d series.Description, b choropleth.Boundaries) error {
	p, err := Plot(d, b)
	if err != nil {
		return err
	}
	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
	if d.Kind != series.Choropleth || d.Message != "" {
		p.Draw(area)
		return nil
	}

	width := area.Max.X - area.Min.X
	p.Draw(draw.Crop(area, 0, -0.4*width, 0, 0))
	bars, err := Bars(d)
	if err != nil {
		return err
	}
	bars.Title.Text = ""
	bars.Draw(draw.Crop(area, 0.63*width, 0, 0, -0.4*vg.Inch))
	return nil
}

const (
	summaryRowHeight = 0.45 * vg.Inch
	titleColWidth    = 4.2 * vg.Inch
	statusColWidth   = 2.0 * vg.Inch
)

func drawSummaryPage(c *vgpdf.Canvas, ds []series.Description) {
	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
	usableW := area.Max.X - area.Min.X
	sparkColWidth := usableW - titleColWidth - statusColWidth

	yTop := area.Max.Y
	fillText(area, "Traffic infractions in Australia", vg.Points(16), area.Min.X, yTop-vg.Points(16), color.Black)
	fillText(area, fmt.Sprintf("%d charts", len(ds)), vg.Points(10), area.Min.X, yTop-0.4*vg.Inch, color.Gray{Y: 100})

	headerY := yTop - 0.7*vg.Inch
	fillText(area, "Chart", vg.Points(10), area.Min.X, headerY, color.Gray{Y: 80})
	fillText(area, "Status", vg.Points(10), area.Min.X+titleColWidth, headerY, color.Gray{Y: 80})
	fillText(area, "Values", vg.Points(10), area.Min.X+titleColWidth+statusColWidth, headerY, color.Gray{Y: 80})
	sepY := headerY - vg.Points(6)
	strokeHLine(area, area.Min.X, area.Min.X+usableW, sepY, color.Gray{Y: 180})
	yTop = sepY - vg.Points(4)

	for i, d := range ds {
		y := yTop - vg.Length(i)*summaryRowHeight - summaryRowHeight*0.6
		fillText(area, pdfSafe(d.Title), vg.Points(10), area.Min.X, y, color.Black)
		fillText(area, status(d), vg.Points(9), area.Min.X+titleColWidth, y, color.Gray{Y: 60})

		sparkX := area.Min.X + titleColWidth + statusColWidth
		sparkY := yTop - vg.Length(i+1)*summaryRowHeight + vg.Points(3)
		drawSparkline(draw.Canvas{
			Canvas: area.Canvas,
			Rectangle: vg.Rectangle{
				Min: vg.Point{X: sparkX, Y: sparkY},
				Max: vg.Point{X: sparkX + sparkColWidth, Y: sparkY + summaryRowHeight - vg.Points(6)},
			},
		}, itemValues(d))
	}
}

func status(d series.Description) string {
	if d.Message != "" {
		return "unavailable"
	}
	s := fmt.Sprintf("%d shown", len(d.Items))
	if d.Origin != "" {
		s += ", " + string(d.Origin)
	}
	return s
}

// itemValues returns the item values in order, NaN where absent.
func itemValues(d series.Description) []float64 {
	vals := make([]float64, len(d.Items))
	for i, it := range d.Items {
		vals[i] = math.NaN()
		if it.Value.Valid {
			vals[i] = it.Value.Value
		}
	}
	return vals
}

func drawSparkline(c draw.Canvas, vals []float64) {
	var pts plotter.XYs
	for i, v := range vals {
		if !math.IsNaN(v) {
			pts = append(pts, plotter.XY{X: float64(i), Y: v})
		}
	}
	if len(pts) < 2 {
		return
	}

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent

	line, err := plotter.NewLine(pts)
	if err != nil {
		return
	}
	line.Color = chartBlue
	line.Width = vg.Points(1.5)
	p.Add(line)

	p.X.Min = 0
	p.X.Max = float64(len(vals) - 1)
	minY, maxY := pts[0].Y, pts[0].Y
	for _, pt := range pts {
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}
	pad := (maxY - minY) * 0.1
	if pad == 0 {
		pad = 1
	}
	p.Y.Min = minY - pad
	p.Y.Max = maxY + pad

	p.Draw(c)
}

func fillText(c draw.Canvas, txt string, size vg.Length, x, y vg.Length, clr color.Color) {
	sty := draw.TextStyle{
		Color:   clr,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = size
	c.FillText(sty, vg.Point{X: x, Y: y}, txt)
}

func strokeHLine(c draw.Canvas, x0, x1, y vg.Length, clr color.Color) {
	c.StrokeLine2(draw.LineStyle{
		Color: clr,
		Width: vg.Points(0.5),
	}, x0, y, x1, y)
}
