package pages

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/zalepa/infractions/aggregate"
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/palette"
	"github.com/zalepa/infractions/series"
)

const rq5Title = "Infractions by age group"

var rq5Views = []series.Option{
	{Value: string(series.Bubble), Label: "Bubble"},
	{Value: string(series.Lollipop), Label: "Lollipop"},
	{Value: string(series.Bar), Label: "Bar"},
}

// AgeGroups is the RQ5 chart: fines, arrests and charges per 10,000 licence
// holders for each age group.
type AgeGroups struct {
	base
	rows          []dataset.AgeInfraction
	years         []string
	jurisdictions []string
	colors        palette.Assignment
}

func loadRQ5(ctx context.Context, src Sources) (Page, error) {
	res, err := load[dataset.AgeInfraction](ctx, src.AgeInfractions, "age_infractions")
	if err != nil {
		return nil, eris.Wrap(err, "rq5")
	}
	return NewAgeGroups(res.Rows, res.Origin), nil
}

// NewAgeGroups builds the page over rows.
func NewAgeGroups(rows []dataset.AgeInfraction, origin dataset.Origin) *AgeGroups {
	present := sortedSet(rows, func(r dataset.AgeInfraction) string { return r.AgeGroup })
	cats := ordered(dataset.AgeGroups, present)
	jurisdictions := sortedSet(rows, func(r dataset.AgeInfraction) string { return r.Jurisdiction })
	return &AgeGroups{
		base:          base{id: "rq5", title: rq5Title, kind: series.Bubble, categories: cats, origin: origin},
		rows:          rows,
		years:         sortedSet(rows, func(r dataset.AgeInfraction) string { return r.Year }),
		jurisdictions: ordered(dataset.JurisdictionCodes(), jurisdictions),
		colors:        palette.NewAssignment(palette.AgeGroups, palette.OkabeIto, dataset.AgeGroups...),
	}
}

func (p *AgeGroups) Controls(s filter.State) []series.Control {
	years := options("All years", p.years...)
	jurisdictions := options("All jurisdictions", p.jurisdictions...)
	return []series.Control{
		{Name: "year", Label: "Year", Options: years, Value: choose(s, "year", years, filter.All)},
		{Name: "jurisdiction", Label: "Jurisdiction", Options: jurisdictions, Value: choose(s, "jurisdiction", jurisdictions, filter.All)},
		{Name: "view", Label: "View", Options: rq5Views, Value: choose(s, "view", rq5Views, string(series.Bubble))},
	}
}

// Present lists the age groups with rows for the selected year and
// jurisdiction.
func (p *AgeGroups) Present(s filter.State) []string {
	controls := p.Controls(s)
	year, jurisdiction := controls[0].Value, controls[1].Value
	seen := make(map[string]bool)
	for _, r := range p.rows {
		if (year == filter.All || r.Year == year) && (jurisdiction == filter.All || r.Jurisdiction == jurisdiction) {
			seen[r.AgeGroup] = true
		}
	}
	var out []string
	for _, key := range p.categories {
		if seen[key] {
			out = append(out, key)
		}
	}
	return out
}

func (p *AgeGroups) Describe(s filter.State) series.Description {
	controls := p.Controls(s)
	year, jurisdiction, view := controls[0].Value, controls[1].Value, series.Kind(controls[2].Value)

	buckets := aggregate.Grouping[dataset.AgeInfraction]{
		Key: func(r dataset.AgeInfraction) string {
			if year != filter.All && r.Year != year {
				return ""
			}
			if jurisdiction != filter.All && r.Jurisdiction != jurisdiction {
				return ""
			}
			return r.AgeGroup
		},
		Measures: func(r dataset.AgeInfraction) aggregate.Measures {
			m := aggregate.Measures{
				"total":    r.Total().Value,
				"licences": r.LicenceHolders.Value,
			}
			for name, n := range map[string]dataset.Number{"fines": r.Fines, "arrests": r.Arrests, "charges": r.Charges} {
				if n.Valid {
					m[name] = n.Value
				}
			}
			return m
		},
		Order: p.categories,
	}.Apply(p.rows)

	var domain aggregate.Domain
	domain.Include(0)
	entries := make([]series.Entry, 0, len(p.categories))
	for _, key := range p.categories {
		b, ok := buckets.Get(key)
		if !ok {
			continue
		}
		e := series.Entry{
			Key:   key,
			Value: ratio(b, "total", "licences"),
			Size:  b.Sum("total"),
			Detail: []series.Point{
				{Label: "Fines", Value: sum(b, "fines")},
				{Label: "Arrests", Value: sum(b, "arrests")},
				{Label: "Charges", Value: sum(b, "charges")},
				{Label: "Total infractions", Value: sum(b, "total")},
				{Label: "Licence holders", Value: sum(b, "licences")},
			},
		}
		if e.Value.Valid && s.Enabled(key) {
			domain.Include(e.Value.Value)
		}
		entries = append(entries, e)
	}

	return series.Build(series.Input{
		Page:        p.id,
		Title:       p.title,
		Kind:        view,
		Unit:        "per 10k licence holders",
		XLabel:      "Age group",
		YLabel:      "Infractions per 10,000 licence holders",
		Entries:     entries,
		State:       s,
		Colors:      p.colors,
		Precision:   aggregate.Tenths,
		Profile:     series.BubbleProfile,
		Sortable:    true,
		Domain:      &domain,
		Categorical: true,
		Controls:    controls,
		Origin:      p.origin,
	})
}

func sum(b aggregate.Bucket, name string) dataset.Number {
	if !b.Has(name) {
		return dataset.Number{}
	}
	return dataset.Num(b.Sum(name))
}
