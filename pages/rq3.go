package pages

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zalepa/infractions/aggregate"
	"github.com/zalepa/infractions/choropleth"
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/palette"
	"github.com/zalepa/infractions/series"
)

const rq3Title = "Camera versus police detection"

// Detection modes.
const (
	ModeCamera = "camera"
	ModePolice = "police"
	ModeBoth   = "both"
)

var detectionModes = []series.Option{
	{Value: ModeCamera, Label: "Camera"},
	{Value: ModePolice, Label: "Police"},
	{Value: ModeBoth, Label: "Camera + police"},
}

// Detection metrics: offences per 10,000 residents, or detection counts.
const (
	MetricPer10k = "per10k"
	MetricCount  = "count"
)

var detectionMetrics = []series.Option{
	{Value: MetricPer10k, Label: "Per 10,000 residents"},
	{Value: MetricCount, Label: "Total detections"},
}

var detectionRamps = map[string]palette.Ramp{
	ModeCamera: palette.Blues,
	ModePolice: palette.Reds,
	ModeBoth:   palette.YlOrRd,
}

// Detection is the RQ3 map: offences detected by camera, by police or both,
// per jurisdiction and year.
type Detection struct {
	base
	rows    []dataset.Detection
	years   []string
	byYear  map[string]map[string]dataset.Detection
	domains map[string]aggregate.Domain
	colors  palette.Assignment
}

func loadRQ3(ctx context.Context, src Sources) (Page, error) {
	res, err := load[dataset.Detection](ctx, src.Detection, "detection")
	if err != nil {
		return nil, eris.Wrap(err, "rq3")
	}
	return NewDetection(res.Rows, res.Origin), nil
}

// NewDetection builds the page over rows. Each metric has one colour domain
// covering every mode and year, so switching either never rescales the
// legend. Only the first row of a repeated year and jurisdiction is kept.
func NewDetection(rows []dataset.Detection, origin dataset.Origin) *Detection {
	present := sortedSet(rows, func(r dataset.Detection) string { return r.Jurisdiction })
	cats := ordered(dataset.JurisdictionCodes(), present)

	byYear := make(map[string]map[string]dataset.Detection)
	var kept []dataset.Detection
	duplicates := 0
	for _, r := range rows {
		seen, ok := byYear[r.Year]
		if !ok {
			seen = make(map[string]dataset.Detection)
			byYear[r.Year] = seen
		}
		if _, dup := seen[r.Jurisdiction]; dup {
			duplicates++
			continue
		}
		seen[r.Jurisdiction] = r
		kept = append(kept, r)
	}
	if duplicates > 0 {
		zap.L().Warn("rq3: repeated year and jurisdiction rows ignored",
			zap.Int("ignored", duplicates),
			zap.Int("kept", len(kept)),
		)
	}

	domains := make(map[string]aggregate.Domain, len(detectionMetrics))
	for _, m := range detectionMetrics {
		var values []dataset.Number
		for _, r := range kept {
			for _, o := range detectionModes {
				values = append(values, MetricValue(r, o.Value, m.Value))
			}
		}
		domains[m.Value] = choropleth.GlobalDomain(values...)
	}
	return &Detection{
		base:    base{id: "rq3", title: rq3Title, kind: series.Choropleth, categories: cats, origin: origin},
		rows:    kept,
		years:   sortedSet(kept, func(r dataset.Detection) string { return r.Year }),
		byYear:  byYear,
		domains: domains,
		colors:  palette.NewAssignment(palette.Tableau10, palette.OkabeIto, cats...),
	}
}

// DetectionValue is the value mapped for mode: the per-10k rate, else the
// percentage share, and for both modes the sum of the two rates.
func DetectionValue(r dataset.Detection, mode string) dataset.Number {
	switch mode {
	case ModeCamera:
		if r.CameraPer10k.Valid {
			return r.CameraPer10k
		}
		return r.CameraPct
	case ModePolice:
		if r.PolicePer10k.Valid {
			return r.PolicePer10k
		}
		return r.PolicePct
	case ModeBoth:
		sum := r.CameraPer10k.Or(0) + r.PolicePer10k.Or(0)
		if sum > 0 {
			return dataset.Num(sum)
		}
	}
	return dataset.Number{}
}

// DetectionCount is the number of detections for mode, derived from the
// per-10k rate and the jurisdiction's population.
func DetectionCount(r dataset.Detection, mode string) dataset.Number {
	j, ok := dataset.LookupJurisdiction(r.Jurisdiction)
	if !ok || j.Population <= 0 {
		return dataset.Number{}
	}
	count := func(n dataset.Number) dataset.Number {
		if !n.Valid {
			return dataset.Number{}
		}
		return dataset.Num(math.Round(n.Value * float64(j.Population) / aggregate.Per))
	}
	switch mode {
	case ModeCamera:
		return count(r.CameraPer10k)
	case ModePolice:
		return count(r.PolicePer10k)
	case ModeBoth:
		camera, police := count(r.CameraPer10k), count(r.PolicePer10k)
		if sum := camera.Or(0) + police.Or(0); sum > 0 {
			return dataset.Num(sum)
		}
	}
	return dataset.Number{}
}

// MetricValue is the value mapped for mode under metric.
func MetricValue(r dataset.Detection, mode, metric string) dataset.Number {
	if metric == MetricCount {
		return DetectionCount(r, mode)
	}
	return DetectionValue(r, mode)
}

// Shares returns the camera and police share of detections in percent, from
// the reported percentages or else derived from the per-10k rates.
func Shares(r dataset.Detection) (camera, police dataset.Number) {
	if r.CameraPct.Valid || r.PolicePct.Valid {
		return r.CameraPct, r.PolicePct
	}
	c, p := r.CameraPer10k.Or(0), r.PolicePer10k.Or(0)
	if c+p <= 0 {
		return dataset.Number{}, dataset.Number{}
	}
	return dataset.Num(c / (c + p) * 100), dataset.Num(p / (c + p) * 100)
}

// Domain is the fixed colour domain of the map under metric.
func (p *Detection) Domain(metric string) aggregate.Domain { return p.domains[metric] }

func (p *Detection) latest() string {
	if len(p.years) == 0 {
		return ""
	}
	return p.years[len(p.years)-1]
}

// State starts on the latest year with both modes combined, per 10,000
// residents.
func (p *Detection) State() filter.State {
	return p.base.State().
		WithSelection("mode", ModeBoth).
		WithSelection("year", p.latest()).
		WithSelection("metric", MetricPer10k)
}

func (p *Detection) Controls(s filter.State) []series.Control {
	years := options("", p.years...)
	return []series.Control{
		{Name: "mode", Label: "Detection", Options: detectionModes, Value: choose(s, "mode", detectionModes, ModeBoth)},
		{Name: "year", Label: "Year", Options: years, Value: choose(s, "year", years, p.latest())},
		{Name: "metric", Label: "Metric", Options: detectionMetrics, Value: choose(s, "metric", detectionMetrics, MetricPer10k)},
	}
}

func (p *Detection) Describe(s filter.State) series.Description {
	controls := p.Controls(s)
	mode, year, metric := controls[0].Value, controls[1].Value, controls[2].Value
	domain := p.domains[metric]
	scale := choropleth.Scale{Domain: domain, Ramp: detectionRamps[mode]}
	byKey := p.byYear[year]

	unit, yLabel, precision := "per 10k", "Offences per 10,000", aggregate.Tenths
	if metric == MetricCount {
		unit, yLabel, precision = "detections", "Detections", aggregate.Whole
	}

	entries := make([]series.Entry, 0, len(p.categories))
	for _, key := range p.categories {
		e := series.Entry{Key: key}
		if r, ok := byKey[key]; ok {
			e.Value = MetricValue(r, mode, metric)
			camera, police := Shares(r)
			e.Detail = []series.Point{
				{Label: "Camera share (%)", Value: camera},
				{Label: "Police share (%)", Value: police},
				{Label: "Camera per 10k", Value: r.CameraPer10k},
				{Label: "Police per 10k", Value: r.PolicePer10k},
				{Label: "Camera detections", Value: DetectionCount(r, ModeCamera)},
				{Label: "Police detections", Value: DetectionCount(r, ModePolice)},
			}
		}
		fill := scale.Fill(e.Value)
		e.Fill = &fill
		entries = append(entries, e)
	}

	return series.Build(series.Input{
		Page:      p.id,
		Title:     p.title,
		Kind:      series.Choropleth,
		Unit:      unit,
		YLabel:    yLabel,
		Entries:   entries,
		State:     s,
		Colors:    p.colors,
		Precision: precision,
		Profile:   series.BubbleProfile,
		Sortable:  true,
		Domain:    &domain,
		Scale:     scale.Legend(),
		Controls:  controls,
		Origin:    p.origin,
	})
}
