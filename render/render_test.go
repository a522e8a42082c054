package render

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/infractions/aggregate"
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/pages"
	"github.com/zalepa/infractions/series"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v    dataset.Number
		p    aggregate.Precision
		want string
	}{
		{dataset.Num(1234567), aggregate.Whole, "1,234,567"},
		{dataset.Num(999.4), aggregate.Whole, "999"},
		{dataset.Num(1234.56), aggregate.Tenths, "1,234.6"},
		{dataset.Num(5), aggregate.Tenths, "5.0"},
		{dataset.Number{}, aggregate.Tenths, "N/A"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.v, tt.p); got != tt.want {
			t.Errorf("FormatNumber(%v, %d) = %q, want %q", tt.v, tt.p, got, tt.want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{12, "12"},
		{4600, "5k"},
		{2500000, "2.5M"},
	}
	for _, tt := range tests {
		if got := formatCompact(tt.v); got != tt.want {
			t.Errorf("formatCompact(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		in   []float64
		want string
	}{
		{[]float64{0, 7}, "▁█"},
		{[]float64{1, math.NaN(), 1}, "▅ ▅"},
		{[]float64{math.NaN()}, " "},
	}
	for _, tt := range tests {
		if got := sparkline(tt.in); got != tt.want {
			t.Errorf("sparkline(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func automation(t *testing.T) series.Description {
	t.Helper()
	rows, err := dataset.Fallback[dataset.Efficiency]("efficiency")
	require.NoError(t, err)
	p := pages.NewAutomation(rows, dataset.OriginFallback)
	return p.Describe(p.State())
}

func detection(t *testing.T) series.Description {
	t.Helper()
	rows, err := dataset.Fallback[dataset.Detection]("detection")
	require.NoError(t, err)
	p := pages.NewDetection(rows, dataset.OriginFallback)
	return p.Describe(p.State())
}

func monthly() series.Description {
	p := pages.NewMonthlyFines([]dataset.MonthlyFine{
		{Jurisdiction: "NSW", Month: dataset.Num(1), Fines: dataset.Num(1200)},
		{Jurisdiction: "NSW", Month: dataset.Num(2), Fines: dataset.Num(900)},
		{Jurisdiction: "VIC", Month: dataset.Num(1), Fines: dataset.Num(400)},
	}, dataset.OriginPrimary)
	return p.Describe(p.State())
}

func ageGroups(view string) series.Description {
	p := pages.NewAgeGroups([]dataset.AgeInfraction{
		{Year: "2024", Jurisdiction: "NSW", AgeGroup: "17-25", Fines: dataset.Num(90), LicenceHolders: dataset.Num(1000)},
		{Year: "2024", Jurisdiction: "NSW", AgeGroup: "40-64", Fines: dataset.Num(30), LicenceHolders: dataset.Num(1000)},
	}, dataset.OriginPrimary)
	return p.Describe(p.State().WithSelection("view", view))
}

func TestTerminalTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, monthly()))
	out := buf.String()
	assert.Contains(t, out, "Monthly speeding fines by jurisdiction")
	assert.Contains(t, out, "Entity")
	assert.Contains(t, out, "2,100")
	assert.Contains(t, out, "█▁")
}

func TestTerminalSingleSeriesChart(t *testing.T) {
	d := monthly()
	d.Items = d.Items[:1]
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, d))
	assert.Contains(t, buf.String(), "●")
	assert.Contains(t, buf.String(), "Jan")
}

func TestTerminalBars(t *testing.T) {
	d := detection(t)
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, d))
	out := buf.String()
	assert.Contains(t, out, "Detection: Camera + police")
	assert.Contains(t, out, "216.0")
	assert.Contains(t, out, "Scale: YlOrRd, 15 to 216")
}

func TestTerminalMessage(t *testing.T) {
	d := series.WithMessage("rq1", "Monthly fines", series.Line, "The data for this chart could not be loaded.")
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, d))
	assert.Contains(t, buf.String(), "could not be loaded")
}

func TestPlotKinds(t *testing.T) {
	descs := []series.Description{
		monthly(),
		automation(t),
		detection(t),
		ageGroups("bubble"),
		ageGroups("lollipop"),
		series.WithMessage("rq4", "Age groups", series.Choropleth, "No data"),
	}
	for _, d := range descs {
		p, err := Plot(d, nil)
		require.NoError(t, err, d.Title)
		assert.NotNil(t, p)
	}

	_, err := Plot(series.Description{Kind: "pie", Items: []series.Item{}}, nil)
	assert.Error(t, err)
}

func TestPlotAutomationAxes(t *testing.T) {
	p, err := Plot(automation(t), nil)
	require.NoError(t, err)
	assert.Equal(t, 40.0, p.X.Min)
	assert.Equal(t, 100.0, p.X.Max)
	assert.Equal(t, 0.0, p.Y.Min)
	assert.Equal(t, 35.0, p.Y.Max)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"chart.png", "chart.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, automation(t), nil, DefaultSize))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Error(t, Save(filepath.Join(dir, "chart.gif"), automation(t), nil, DefaultSize))
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "svg", detection(t), nil, DefaultSize))
	assert.True(t, strings.Contains(buf.String(), "<svg"))
}

func TestWriteReport(t *testing.T) {
	descs := []series.Description{monthly(), automation(t), detection(t), ageGroups("lollipop")}
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, WriteReport(path, descs, nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	n, err := CountPages(f)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, ReportPages(len(descs)))

	assert.Error(t, Report(&bytes.Buffer{}, nil, nil))
}
