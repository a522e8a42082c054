package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/zalepa/infractions/series"
)

// Terminal writes a plain-text rendering of d to w: a sparkline table for
// line charts with several series, an ASCII chart for a single series, and a
// bar table for everything else.
func Terminal(w io.Writer, d series.Description) error {
	var sb strings.Builder
	sb.WriteString(d.Title + "\n")
	if len(d.Controls) > 0 {
		var parts []string
		for _, c := range d.Controls {
			parts = append(parts, c.Label+": "+selected(c))
		}
		sb.WriteString(strings.Join(parts, "  ") + "\n")
	}
	sb.WriteString("\n")

	switch {
	case d.Message != "":
		sb.WriteString(d.Message + "\n")
	case d.Kind == series.Line && len(d.Items) == 1:
		renderChart(&sb, d.Items[0])
	case d.Kind == series.Line:
		renderTable(&sb, d)
	default:
		renderBars(&sb, d)
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return eris.Wrap(err, "render: write terminal output")
	}
	return nil
}

// selected returns the label of the chosen option.
func selected(c series.Control) string {
	for _, o := range c.Options {
		if o.Value == c.Value && o.Label != "" {
			return o.Label
		}
	}
	return c.Value
}

func nameWidth(d series.Description) int {
	maxName := 10
	for _, it := range d.Items {
		maxName = max(maxName, len(it.Label))
	}
	return maxName
}

func pointValues(pts []series.Point) []float64 {
	vals := make([]float64, len(pts))
	for i, p := range pts {
		vals[i] = math.NaN()
		if p.Value.Valid {
			vals[i] = p.Value.Value
		}
	}
	return vals
}

func renderTable(sb *strings.Builder, d series.Description) {
	maxName := nameWidth(d)
	nPoints := 0
	for _, it := range d.Items {
		nPoints = max(nPoints, len(it.Points))
	}

	rowFmt := fmt.Sprintf("%%-%ds  %%12s   %%s\n", maxName)
	fmt.Fprintf(sb, rowFmt, "Entity", "Total", "Trend")
	sb.WriteString(strings.Repeat("─", maxName+2+12+3+nPoints) + "\n")
	for _, it := range d.Items {
		fmt.Fprintf(sb, rowFmt, it.Label, FormatNumber(it.Value, 0), sparkline(pointValues(it.Points)))
	}
}

func renderBars(sb *strings.Builder, d series.Description) {
	const barWidth = 40
	maxName := nameWidth(d)
	top := d.Domain.Max
	for _, it := range d.Items {
		if it.Value.Valid {
			top = math.Max(top, it.Value.Value)
		}
	}

	rowFmt := fmt.Sprintf("%%-%ds  %%12s   %%s\n", maxName)
	unit := "Value"
	if d.Unit != "" {
		unit = d.Unit
	}
	fmt.Fprintf(sb, rowFmt, "Entity", unit, "")
	sb.WriteString(strings.Repeat("─", maxName+2+12+3+barWidth) + "\n")
	for _, it := range d.Items {
		bar := ""
		if it.Value.Valid && top > 0 {
			n := int(math.Round(math.Max(0, it.Value.Value) / top * barWidth))
			bar = strings.Repeat("█", n)
		}
		marker := ""
		if it.Emphasis.Focused {
			marker = " ◀"
		}
		fmt.Fprintf(sb, rowFmt, it.Label, it.Text, bar+marker)
	}
	if d.Scale != nil && d.Scale.Domain.Valid {
		fmt.Fprintf(sb, "\nScale: %s, %s to %s\n", d.Scale.Ramp,
			formatCompact(d.Scale.Domain.Min), formatCompact(d.Scale.Domain.Max))
	}
}

func sparkline(values []float64) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	n := len(blocks)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return strings.Repeat(" ", len(values))
	}

	spread := hi - lo
	var sb strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			sb.WriteRune(' ')
			continue
		}
		idx := n / 2
		if spread > 0 {
			idx = min(int((v-lo)/spread*float64(n-1)), n-1)
		}
		sb.WriteRune(blocks[idx])
	}
	return sb.String()
}

func renderChart(sb *strings.Builder, it series.Item) {
	var points []series.Point
	for _, p := range it.Points {
		if p.Value.Valid {
			points = append(points, p)
		}
	}
	sb.WriteString(it.Label + "\n")
	if len(points) == 0 {
		sb.WriteString("(no data)\n")
		return
	}

	const height = 15
	nPoints := len(points)
	colWidth := min(max(90/nPoints, 3), 8)

	minVal, maxVal := points[0].Value.Value, points[0].Value.Value
	for _, p := range points {
		minVal = math.Min(minVal, p.Value.Value)
		maxVal = math.Max(maxVal, p.Value.Value)
	}
	valRange := maxVal - minVal
	if valRange == 0 {
		valRange = 1
		minVal -= 0.5
	}

	rows := make([]int, nPoints)
	for i, p := range points {
		r := int(math.Round((p.Value.Value - minVal) / valRange * float64(height-1)))
		rows[i] = min(max(r, 0), height-1)
	}

	totalWidth := nPoints * colWidth
	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", totalWidth))
	}
	for i := 0; i < nPoints; i++ {
		col := i*colWidth + colWidth/2
		grid[rows[i]][col] = '●'
		if i == nPoints-1 {
			continue
		}
		endCol := (i+1)*colWidth + colWidth/2
		for c := col + 1; c < endCol; c++ {
			t := float64(c-col) / float64(endCol-col)
			r := int(math.Round(float64(rows[i]) + t*float64(rows[i+1]-rows[i])))
			r = min(max(r, 0), height-1)
			if grid[r][c] == ' ' {
				grid[r][c] = '·'
			}
		}
	}

	yLabels := make(map[int]string)
	for i := 0; i < 5; i++ {
		row := int(math.Round(float64(i) / 4.0 * float64(height-1)))
		yLabels[row] = formatCompact(minVal + float64(row)/float64(height-1)*valRange)
	}
	for r := height - 1; r >= 0; r-- {
		fmt.Fprintf(sb, "%8s │%s\n", yLabels[r], string(grid[r]))
	}
	fmt.Fprintf(sb, "%8s └%s\n", "", strings.Repeat("─", totalWidth))

	xLine := []byte(strings.Repeat(" ", totalWidth))
	for i, p := range points {
		pos := max(i*colWidth+colWidth/2-len(p.Label)/2, 0)
		for j := 0; j < len(p.Label) && pos+j < totalWidth; j++ {
			xLine[pos+j] = p.Label[j]
		}
	}
	fmt.Fprintf(sb, "%8s  %s\n", "", string(xLine))
}
