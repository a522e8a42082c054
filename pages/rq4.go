package pages

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/zalepa/infractions/aggregate"
	"github.com/zalepa/infractions/choropleth"
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/palette"
	"github.com/zalepa/infractions/series"
)

const rq4Title = "Age-group offences by jurisdiction"

// licensedAgeGroups are the age groups old enough to hold a licence.
var licensedAgeGroups = dataset.AgeGroups[1:]

// AgeOffences is the RQ4 map: offences per 10,000 licence holders, for one age
// group or all of them.
type AgeOffences struct {
	base
	rows   []dataset.AgeOffence
	modes  []series.Option
	domain aggregate.Domain
	colors palette.Assignment
}

func loadRQ4(ctx context.Context, src Sources) (Page, error) {
	res, err := load[dataset.AgeOffence](ctx, src.AgeOffences, "age_offences")
	if err != nil {
		return nil, eris.Wrap(err, "rq4")
	}
	return NewAgeOffences(res.Rows, res.Origin), nil
}

// NewAgeOffences builds the page over rows. The colour domain covers every
// mode.
func NewAgeOffences(rows []dataset.AgeOffence, origin dataset.Origin) *AgeOffences {
	present := sortedSet(rows, func(r dataset.AgeOffence) string { return r.Jurisdiction })
	cats := ordered(dataset.JurisdictionCodes(), present)
	p := &AgeOffences{
		base:   base{id: "rq4", title: rq4Title, kind: series.Choropleth, categories: cats, origin: origin},
		rows:   rows,
		modes:  options("All ages", licensedAgeGroups...),
		colors: palette.NewAssignment(palette.Tableau10, palette.OkabeIto, cats...),
	}
	var values []dataset.Number
	for _, o := range p.modes {
		for _, b := range p.group(o.Value) {
			values = append(values, ratio(b, "offences", "licences"))
		}
	}
	p.domain = choropleth.GlobalDomain(values...)
	return p
}

// group buckets the offences and licence holders of mode by jurisdiction. The
// All mode sums every age group before the rate is taken.
func (p *AgeOffences) group(mode string) aggregate.Buckets {
	return aggregate.Grouping[dataset.AgeOffence]{
		Key: func(r dataset.AgeOffence) string {
			if mode != filter.All && r.AgeGroup != mode {
				return ""
			}
			return r.Jurisdiction
		},
		Measures: offenceMeasures,
		Order:    p.categories,
	}.Apply(p.rows)
}

func offenceMeasures(r dataset.AgeOffence) aggregate.Measures {
	m := aggregate.Measures{"offences": r.Offences.Value}
	if r.LicenceHolders.Valid {
		m["licences"] = r.LicenceHolders.Value
	}
	return m
}

// Domain is the fixed colour domain of the map.
func (p *AgeOffences) Domain() aggregate.Domain { return p.domain }

func (p *AgeOffences) Controls(s filter.State) []series.Control {
	return []series.Control{{
		Name:    "mode",
		Label:   "Age group",
		Options: p.modes,
		Value:   choose(s, "mode", p.modes, filter.All),
	}}
}

func (p *AgeOffences) Describe(s filter.State) series.Description {
	controls := p.Controls(s)
	mode := controls[0].Value
	scale := choropleth.Scale{Domain: p.domain, Ramp: palette.YlOrRd}
	buckets := p.group(mode)

	entries := make([]series.Entry, 0, len(p.categories))
	for _, key := range p.categories {
		e := series.Entry{Key: key}
		if b, ok := buckets.Get(key); ok {
			e.Value = ratio(b, "offences", "licences")
		}
		e.Detail = p.detail(key)
		fill := scale.Fill(e.Value)
		e.Fill = &fill
		entries = append(entries, e)
	}

	domain := p.domain
	return series.Build(series.Input{
		Page:      p.id,
		Title:     p.title,
		Kind:      series.Choropleth,
		Unit:      "per 10k licence holders",
		YLabel:    "Offences per 10,000 licence holders",
		Entries:   entries,
		State:     s,
		Colors:    p.colors,
		Precision: aggregate.Tenths,
		Profile:   series.BubbleProfile,
		Sortable:  true,
		Domain:    &domain,
		Scale:     scale.Legend(),
		Controls:  controls,
		Origin:    p.origin,
	})
}

// detail lists the rate of each licensed age group in jurisdiction key.
func (p *AgeOffences) detail(key string) []series.Point {
	buckets := aggregate.Grouping[dataset.AgeOffence]{
		Key: func(r dataset.AgeOffence) string {
			if r.Jurisdiction != key {
				return ""
			}
			return r.AgeGroup
		},
		Measures: offenceMeasures,
		Order:    licensedAgeGroups,
	}.Apply(p.rows)

	out := make([]series.Point, 0, len(licensedAgeGroups))
	for i, g := range licensedAgeGroups {
		pt := series.Point{Label: g, X: float64(i)}
		if b, ok := buckets.Get(g); ok {
			pt.Value = ratio(b, "offences", "licences")
		}
		out = append(out, pt)
	}
	return out
}
