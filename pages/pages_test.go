package pages

import (
	"context"
	"net/url"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/palette"
	"github.com/zalepa/infractions/series"
)

func item(t *testing.T, d series.Description, key string) series.Item {
	t.Helper()
	for _, it := range d.Items {
		if it.Key == key {
			return it
		}
	}
	t.Fatalf("no item %q in %s", key, d.Page)
	return series.Item{}
}

func keys(d series.Description) []string {
	var out []string
	for _, it := range d.Items {
		out = append(out, it.Key)
	}
	return out
}

func monthly() []dataset.MonthlyFine {
	return []dataset.MonthlyFine{
		{Year: "2023", Jurisdiction: "VIC", Month: dataset.Num(1), Fines: dataset.Num(7)},
		{Year: "2023", Jurisdiction: "NSW", Month: dataset.Num(1), Fines: dataset.Num(10)},
		{Year: "2023", Jurisdiction: "NSW", Month: dataset.Num(2), Fines: dataset.Num(20)},
		{Year: "2024", Jurisdiction: "NSW", Month: dataset.Num(1), Fines: dataset.Num(5)},
	}
}

func TestMonthlyFines(t *testing.T) {
	p := NewMonthlyFines(monthly(), dataset.OriginPrimary)
	assert.Equal(t, []string{"NSW", "VIC"}, p.Categories())

	d := p.Describe(p.State())
	assert.Equal(t, series.Line, d.Kind)
	require.Len(t, d.Controls, 1)
	assert.Equal(t, filter.All, d.Controls[0].Value)

	nsw := item(t, d, "NSW")
	require.Len(t, nsw.Points, 12)
	assert.Equal(t, "Jan", nsw.Points[0].Label)
	assert.Equal(t, 15.0, nsw.Points[0].Value.Value)
	assert.Equal(t, 20.0, nsw.Points[1].Value.Value)
	assert.False(t, nsw.Points[2].Value.Valid)
	assert.Equal(t, "N/A", nsw.Points[2].Text)
	assert.Equal(t, 40.0, nsw.Value.Value)
	assert.Equal(t, 0.0, d.Domain.Min)
	assert.Equal(t, 20.0, d.Domain.Max)

	d = p.Describe(p.State().WithSelection("year", "2024"))
	assert.Equal(t, 5.0, item(t, d, "NSW").Points[0].Value.Value)
	assert.Equal(t, []string{"NSW"}, keys(d))

	s := filter.Apply(p.State(), filter.Event{Kind: filter.Toggle, Key: "NSW"})
	d = p.Describe(s)
	assert.Equal(t, []string{"VIC"}, keys(d))
	assert.Equal(t, 7.0, d.Domain.Max)
	assert.Len(t, d.Legend, 2)
}

func TestMonthlyFinesWithoutYears(t *testing.T) {
	rows := monthly()
	for i := range rows {
		rows[i].Year = ""
	}
	p := NewMonthlyFines(rows, dataset.OriginPrimary)
	assert.Empty(t, p.Controls(p.State()))
}

func TestAutomationFixedAxes(t *testing.T) {
	rows, err := dataset.Fallback[dataset.Efficiency]("efficiency")
	require.NoError(t, err)
	p := NewAutomation(rows, dataset.OriginFallback)
	assert.Equal(t, dataset.JurisdictionCodes(), p.Categories())

	d := p.Describe(p.State())
	assert.Equal(t, AutomationDomain, d.XDomain)
	assert.Equal(t, SeverityDomain, d.Domain)
	require.Len(t, d.Guides, 2)
	assert.Equal(t, 70.0, d.Guides[0].Value)
	assert.Equal(t, 17.5, d.Guides[1].Value)

	nsw := item(t, d, "NSW")
	assert.Equal(t, 92.0, nsw.X)
	assert.Equal(t, 5.0, nsw.Value.Value)
	assert.Equal(t, 220000.0, nsw.Size)

	d = p.Describe(filter.Apply(p.State(), filter.Event{Kind: filter.Click, Key: "TAS"}))
	assert.Equal(t, "isolated", d.Focus)
	assert.Equal(t, 1.0, item(t, d, "TAS").Emphasis.Opacity)
	assert.Equal(t, 0.2, item(t, d, "NSW").Emphasis.Opacity)
}

func TestAutomationHoverDimsLessThanIsolation(t *testing.T) {
	rows, err := dataset.Fallback[dataset.Efficiency]("efficiency")
	require.NoError(t, err)
	p := NewAutomation(rows, dataset.OriginFallback)

	hover := p.Describe(filter.Apply(p.State(), filter.Event{Kind: filter.HoverEnter, Key: "NSW"}))
	isolated := p.Describe(filter.Apply(p.State(), filter.Event{Kind: filter.Click, Key: "NSW"}))
	assert.Equal(t, "hovering", hover.Focus)
	assert.Equal(t, 1.0, item(t, hover, "NSW").Emphasis.Opacity)
	for _, key := range []string{"VIC", "QLD", "TAS"} {
		assert.Greater(t, item(t, hover, key).Emphasis.Opacity, item(t, isolated, key).Emphasis.Opacity, key)
	}
}

func TestAutomationAveragesRepeatedRows(t *testing.T) {
	p := NewAutomation([]dataset.Efficiency{
		{Jurisdiction: "NSW", Automation: dataset.Num(90), Severity: dataset.Num(4), TotalFines: dataset.Num(100)},
		{Jurisdiction: "NSW", Automation: dataset.Num(80), Severity: dataset.Num(6), TotalFines: dataset.Num(50)},
	}, dataset.OriginPrimary)
	nsw := item(t, p.Describe(p.State()), "NSW")
	assert.Equal(t, 85.0, nsw.X)
	assert.Equal(t, 5.0, nsw.Value.Value)
	assert.Equal(t, 150.0, nsw.Size)
}

func TestDetectionValue(t *testing.T) {
	r := dataset.Detection{CameraPer10k: dataset.Num(80), PolicePer10k: dataset.Num(15)}
	assert.Equal(t, 80.0, DetectionValue(r, ModeCamera).Value)
	assert.Equal(t, 15.0, DetectionValue(r, ModePolice).Value)
	assert.Equal(t, 95.0, DetectionValue(r, ModeBoth).Value)

	pct := dataset.Detection{CameraPct: dataset.Num(60), PolicePct: dataset.Num(40)}
	assert.Equal(t, 60.0, DetectionValue(pct, ModeCamera).Value)
	assert.False(t, DetectionValue(pct, ModeBoth).Valid)

	camera, police := Shares(r)
	assert.InDelta(t, 84.2, camera.Value, 0.1)
	assert.InDelta(t, 15.8, police.Value, 0.1)

	camera, police = Shares(dataset.Detection{})
	assert.False(t, camera.Valid)
	assert.False(t, police.Valid)
}

func TestDetectionLegendFixed(t *testing.T) {
	rows := []dataset.Detection{
		{Year: "2023", Jurisdiction: "NSW", CameraPer10k: dataset.Num(50), PolicePer10k: dataset.Num(10)},
		{Year: "2024", Jurisdiction: "NSW", CameraPer10k: dataset.Num(80), PolicePer10k: dataset.Num(15)},
		{Year: "2024", Jurisdiction: "ACT", CameraPer10k: dataset.Num(181), PolicePer10k: dataset.Num(35)},
	}
	p := NewDetection(rows, dataset.OriginPrimary)
	assert.Equal(t, []string{"NSW", "ACT"}, p.Categories())

	initial := p.Describe(p.State())
	assert.Equal(t, "2024", initial.Controls[1].Value)
	assert.Equal(t, ModeBoth, initial.Controls[0].Value)
	assert.Equal(t, 95.0, item(t, initial, "NSW").Value.Value)

	for _, mode := range []string{ModeCamera, ModePolice, ModeBoth} {
		for _, year := range []string{"2023", "2024"} {
			d := p.Describe(p.State().WithSelection("mode", mode).WithSelection("year", year))
			require.NotNil(t, d.Scale)
			assert.Equal(t, initial.Scale.Domain, d.Scale.Domain, "%s %s", mode, year)
			assert.Equal(t, 10.0, d.Scale.Domain.Min)
			assert.Equal(t, 216.0, d.Scale.Domain.Max)
		}
	}

	d := p.Describe(p.State().WithSelection("mode", ModePolice).WithSelection("year", "2023"))
	assert.Equal(t, "Reds", d.Scale.Ramp)
	act := item(t, d, "ACT")
	assert.False(t, act.Value.Valid)
	assert.Equal(t, "#eeeeee", act.Color)
}

func TestDetectionCountMetric(t *testing.T) {
	rows := []dataset.Detection{
		{Year: "2023", Jurisdiction: "NSW", CameraPer10k: dataset.Num(50), PolicePer10k: dataset.Num(10)},
		{Year: "2024", Jurisdiction: "NSW", CameraPer10k: dataset.Num(80), PolicePer10k: dataset.Num(15)},
		{Year: "2024", Jurisdiction: "ACT", CameraPer10k: dataset.Num(181), PolicePer10k: dataset.Num(35)},
	}
	p := NewDetection(rows, dataset.OriginPrimary)

	// NSW population 8,166,000: 80 per 10k is 65,328 detections.
	assert.Equal(t, 65328.0, DetectionCount(rows[1], ModeCamera).Value)
	assert.Equal(t, 12249.0, DetectionCount(rows[1], ModePolice).Value)
	assert.Equal(t, 77577.0, DetectionCount(rows[1], ModeBoth).Value)
	assert.False(t, DetectionCount(dataset.Detection{Jurisdiction: "XYZ", CameraPer10k: dataset.Num(5)}, ModeCamera).Valid)
	assert.False(t, DetectionCount(dataset.Detection{Jurisdiction: "NSW", CameraPct: dataset.Num(60)}, ModeCamera).Valid)

	initial := p.Describe(p.State().WithSelection("metric", MetricCount))
	require.Len(t, initial.Controls, 3)
	assert.Equal(t, MetricCount, initial.Controls[2].Value)
	assert.Equal(t, "detections", initial.Unit)
	nsw := item(t, initial, "NSW")
	assert.Equal(t, 77577.0, nsw.Value.Value)
	assert.Equal(t, "77577", nsw.Text)

	for _, mode := range []string{ModeCamera, ModePolice, ModeBoth} {
		for _, year := range []string{"2023", "2024"} {
			d := p.Describe(p.State().WithSelection("metric", MetricCount).WithSelection("mode", mode).WithSelection("year", year))
			assert.Equal(t, initial.Scale.Domain, d.Scale.Domain, "%s %s", mode, year)
		}
	}
	assert.Equal(t, 77577.0, p.Domain(MetricCount).Max)
	assert.InDelta(t, 1509.0, p.Domain(MetricCount).Min, 1)
	assert.Equal(t, 216.0, p.Domain(MetricPer10k).Max)

	per10k := p.Describe(p.State())
	assert.Equal(t, MetricPer10k, per10k.Controls[2].Value)
	assert.NotEqual(t, per10k.Scale.Domain, initial.Scale.Domain)
}

func TestDetectionRepeatedRows(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	p := NewDetection([]dataset.Detection{
		{Year: "2024", Jurisdiction: "NSW", CameraPer10k: dataset.Num(80), PolicePer10k: dataset.Num(15)},
		{Year: "2024", Jurisdiction: "NSW", CameraPer10k: dataset.Num(10), PolicePer10k: dataset.Num(1)},
		{Year: "2023", Jurisdiction: "NSW", CameraPer10k: dataset.Num(10), PolicePer10k: dataset.Num(1)},
	}, dataset.OriginPrimary)

	assert.Equal(t, 95.0, item(t, p.Describe(p.State()), "NSW").Value.Value)
	warnings := logs.FilterMessage("rq3: repeated year and jurisdiction rows ignored").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(1), warnings[0].ContextMap()["ignored"])
}

func TestDetectionFallback(t *testing.T) {
	empty := dataset.Rows{{"YEAR", "JURISDICTION", "Camera_offence_per10k", "Police_offence_per10k"}}
	p, err := Load(context.Background(), "rq3", Sources{Detection: empty})
	require.NoError(t, err)

	d := p.Describe(p.State())
	assert.Equal(t, dataset.OriginFallback, d.Origin)
	assert.Len(t, d.Items, 8)
	assert.Empty(t, d.Message)
}

// Offences per 10,000 licence holders: (100 + 50) / (1000 + 500) * 10000.
func TestAgeOffencesCombinedRate(t *testing.T) {
	rows := []dataset.AgeOffence{
		{Jurisdiction: "NSW", AgeGroup: "17-25", Offences: dataset.Num(100), LicenceHolders: dataset.Num(1000)},
		{Jurisdiction: "NSW", AgeGroup: "26-39", Offences: dataset.Num(50), LicenceHolders: dataset.Num(500)},
		{Jurisdiction: "VIC", AgeGroup: "17-25", Offences: dataset.Num(100), LicenceHolders: dataset.Num(1000)},
		{Jurisdiction: "VIC", AgeGroup: "26-39", Offences: dataset.Num(50), LicenceHolders: dataset.Num(2000)},
		{Jurisdiction: "QLD", AgeGroup: "17-25", Offences: dataset.Num(10)},
	}
	p := NewAgeOffences(rows, dataset.OriginPrimary)
	d := p.Describe(p.State())

	assert.Equal(t, 1000.0, item(t, d, "NSW").Value.Value)
	assert.Equal(t, "1000.0", item(t, d, "NSW").Text)
	assert.Equal(t, 500.0, item(t, d, "VIC").Value.Value)
	assert.False(t, item(t, d, "QLD").Value.Valid)
	assert.Equal(t, palette.Hex(palette.NoData), item(t, d, "QLD").Color)

	detail := item(t, d, "VIC").Detail
	require.Len(t, detail, 4)
	assert.Equal(t, "17-25", detail[0].Label)
	assert.Equal(t, 1000.0, detail[0].Value.Value)
	assert.Equal(t, 250.0, detail[1].Value.Value)
	assert.False(t, detail[2].Value.Valid)

	young := p.Describe(p.State().WithSelection("mode", "26-39"))
	assert.Equal(t, d.Scale.Domain, young.Scale.Domain)
	assert.Equal(t, 250.0, item(t, young, "VIC").Value.Value)
	assert.Equal(t, 250.0, p.Domain().Min)
	assert.Equal(t, 1000.0, p.Domain().Max)
}

func infractions() []dataset.AgeInfraction {
	row := func(year, j, group string, fines, arrests, charges, licences float64) dataset.AgeInfraction {
		return dataset.AgeInfraction{
			Year: year, Jurisdiction: j, AgeGroup: group,
			Fines: dataset.Num(fines), Arrests: dataset.Num(arrests), Charges: dataset.Num(charges),
			LicenceHolders: dataset.Num(licences),
		}
	}
	return []dataset.AgeInfraction{
		row("2023", "NSW", "17-25", 80, 10, 10, 1000),
		row("2023", "NSW", "40-64", 50, 0, 0, 1000),
		row("2023", "NSW", "65 and over", 25, 0, 0, 500),
		row("2024", "VIC", "17-25", 100, 0, 0, 1000),
		row("2024", "VIC", "26-39", 20, 0, 0, 1000),
	}
}

func TestAgeGroups(t *testing.T) {
	p := NewAgeGroups(infractions(), dataset.OriginPrimary)
	assert.Equal(t, []string{"17-25", "26-39", "40-64", "65 and over"}, p.Categories())

	d := p.Describe(p.State())
	assert.Equal(t, series.Bubble, d.Kind)
	assert.Equal(t, []string{"17-25", "26-39", "40-64", "65 and over"}, keys(d))
	young := item(t, d, "17-25")
	assert.Equal(t, 1000.0, young.Value.Value)
	assert.Equal(t, 200.0, young.Size)
	assert.Equal(t, "#3b82f6", young.Color)
}

func TestAgeGroupsFilters(t *testing.T) {
	p := NewAgeGroups(infractions(), dataset.OriginPrimary)

	s := p.State().WithSelection("jurisdiction", "NSW").WithSelection("view", "lollipop")
	d := p.Describe(s)
	assert.Equal(t, series.Lollipop, d.Kind)
	assert.Equal(t, []string{"17-25", "40-64", "65 and over"}, keys(d))
	assert.Equal(t, 1000.0, item(t, d, "17-25").Value.Value)

	d = p.Describe(p.State().WithSelection("year", "2024"))
	assert.Equal(t, []string{"17-25", "26-39"}, keys(d))

	d = p.Describe(p.State().WithSelection("view", "bar"))
	assert.Equal(t, series.Bar, d.Kind)
	assert.Len(t, d.Items, 4)
}

func TestSessionNarrowsCategories(t *testing.T) {
	sess := NewSession(NewAgeGroups(infractions(), dataset.OriginPrimary))
	sess.Dispatch(filter.Event{Kind: filter.Click, Key: "26-39"})

	d := sess.Dispatch(filter.Event{Kind: filter.Select, Control: "jurisdiction", Value: "NSW"})
	assert.Equal(t, "normal", d.Focus, "isolated group has no NSW rows")
	assert.Equal(t, []string{"17-25", "40-64", "65 and over"}, sess.State().Categories())
	assert.Len(t, d.Legend, 3)

	sess.Dispatch(filter.Event{Kind: filter.Toggle, Key: "40-64"})
	d = sess.Dispatch(filter.Event{Kind: filter.Select, Control: "jurisdiction", Value: filter.All})
	s := sess.State()
	assert.Equal(t, []string{"17-25", "26-39", "40-64", "65 and over"}, s.Categories())
	assert.True(t, s.Enabled("26-39"))
	assert.False(t, s.Enabled("40-64"))
	assert.Equal(t, []string{"17-25", "26-39", "65 and over"}, keys(d))
}

func TestMonthlyFinesPresent(t *testing.T) {
	p := NewMonthlyFines(monthly(), dataset.OriginPrimary)
	assert.Equal(t, []string{"NSW", "VIC"}, p.Present(p.State()))
	assert.Equal(t, []string{"NSW"}, p.Present(p.State().WithSelection("year", "2024")))

	s := QueryState(p, url.Values{"year": {"2024"}})
	assert.Equal(t, []string{"NSW"}, s.Categories())
	assert.Equal(t, []string{"NSW"}, keys(p.Describe(s)))
}

func TestAgeGroupsSortByRateIsStable(t *testing.T) {
	p := NewAgeGroups(infractions(), dataset.OriginPrimary)
	s := filter.Apply(p.State(), filter.Event{Kind: filter.Sort, Value: string(filter.SortByRate)})
	d := p.Describe(s)
	// 17-25: 1000, 40-64: 500, 65 and over: 500, 26-39: 200.
	assert.Equal(t, []string{"17-25", "40-64", "65 and over", "26-39"}, keys(d))
}

func TestLoadUnknownPage(t *testing.T) {
	_, err := Load(context.Background(), "rq9", Sources{})
	assert.True(t, eris.Is(err, ErrUnknownPage))
	assert.False(t, Known("rq9"))
	assert.True(t, Known("rq1"))
}

func TestLoadErrorPage(t *testing.T) {
	p, err := Load(context.Background(), "rq1", Sources{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, dataset.ErrResourceUnavailable))

	ep, ok := p.(*ErrorPage)
	require.True(t, ok)
	d := ep.Describe(ep.State())
	assert.Equal(t, "rq1", d.Page)
	assert.Empty(t, d.Items)
	assert.Equal(t, "The data for this chart could not be loaded.", d.Message)

	empty := dataset.Rows{{"JURISDICTION", "AGE_GROUP", "Sum(Combined Offences)", "License_holder"}}
	p, err = Load(context.Background(), "rq4", Sources{AgeOffences: empty})
	assert.True(t, eris.Is(err, dataset.ErrNoUsableRows))
	assert.Equal(t, "No usable data rows were found for this chart.", p.Describe(p.State()).Message)
}

func TestLoadAll(t *testing.T) {
	all, err := LoadAll(context.Background(), Sources{})
	require.NoError(t, err)
	require.Len(t, all, len(IDs))

	for i, p := range all {
		assert.Equal(t, IDs[i], p.ID())
		_, failed := p.(*ErrorPage)
		switch p.ID() {
		case "rq2", "rq3":
			assert.False(t, failed, p.ID())
		default:
			assert.True(t, failed, p.ID())
		}
	}

	set := NewSet(all...)
	got, err := set.Get("rq2")
	require.NoError(t, err)
	assert.Equal(t, rq2Title, got.Title())
	_, err = set.Get("nope")
	assert.True(t, eris.Is(err, ErrUnknownPage))

	set.Replace(NewMonthlyFines(monthly(), dataset.OriginPrimary))
	got, _ = set.Get("rq1")
	_, failed := got.(*ErrorPage)
	assert.False(t, failed)
	assert.Len(t, set.All(), len(IDs))
}

func TestLoadMonthlyFallsBackToSinglePeriod(t *testing.T) {
	q1 := dataset.Rows{
		{"JURISDICTION", "Month", "Sum(FINES)"},
		{"NSW", "1", "1,200"},
	}
	p, err := Load(context.Background(), "rq1", Sources{Monthly: q1, MonthlyByYear: dataset.FileSource{Path: "/nonexistent/Q2.csv"}})
	require.NoError(t, err)
	d := p.Describe(p.State())
	assert.Equal(t, dataset.OriginFallback, d.Origin)
	assert.Equal(t, 1200.0, item(t, d, "NSW").Points[0].Value.Value)
	assert.Empty(t, d.Controls)
}

func TestSession(t *testing.T) {
	rows, err := dataset.Fallback[dataset.Efficiency]("efficiency")
	require.NoError(t, err)
	sess := NewSession(NewAutomation(rows, dataset.OriginFallback))
	assert.Equal(t, "normal", sess.Description().Focus)

	d := sess.Dispatch(filter.Event{Kind: filter.Click, Key: "NSW"})
	assert.Equal(t, "isolated", d.Focus)
	assert.Equal(t, "NSW", d.FocusKey)

	d = sess.Dispatch(filter.Event{Kind: filter.Click, Key: "NSW"})
	assert.Equal(t, "normal", d.Focus)

	d = sess.Dispatch(
		filter.Event{Kind: filter.Click, Key: "VIC"},
		filter.Event{Kind: filter.Toggle, Key: "VIC"},
	)
	assert.Equal(t, "normal", d.Focus)
	assert.Len(t, d.Items, 7)
	assert.False(t, sess.State().Enabled("VIC"))
	assert.Equal(t, d, sess.Description())
}

func TestSessionColorBlindRoundTrip(t *testing.T) {
	sess := NewSession(NewAgeGroups(infractions(), dataset.OriginPrimary))
	before := sess.Description()

	on := sess.Dispatch(filter.Event{Kind: filter.ColorBlind, Value: "on"})
	assert.True(t, on.ColorBlind)
	assert.NotEqual(t, item(t, before, "17-25").Color, item(t, on, "17-25").Color)

	off := sess.Dispatch(filter.Event{Kind: filter.ColorBlind, Value: "off"})
	for _, it := range before.Items {
		assert.Equal(t, it.Color, item(t, off, it.Key).Color)
	}
}

func TestTable(t *testing.T) {
	p := NewMonthlyFines(monthly(), dataset.OriginPrimary)
	recs := Table(p, p.State())
	require.Len(t, recs, 24)
	assert.Equal(t, Record{
		Page: "rq1", Key: "NSW", Label: "NSW", Point: "Jan",
		Measure: "fines", Value: dataset.Num(15), Text: "15",
	}, recs[0])

	rows, err := dataset.Fallback[dataset.Efficiency]("efficiency")
	require.NoError(t, err)
	a := NewAutomation(rows, dataset.OriginFallback)
	recs = Table(a, a.State())
	require.Len(t, recs, 8)
	assert.Equal(t, "5.0", recs[0].Text)
}
