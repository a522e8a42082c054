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

const rq2Title = "The automation paradox"

// Fixed RQ2 axes. The midpoints split the plot into quadrants.
var (
	AutomationDomain = aggregate.DomainOf(40, 100)
	SeverityDomain   = aggregate.DomainOf(0, 35)
)

const (
	automationMid = 70
	severityMid   = 17.5
)

// Automation is the RQ2 bubble chart: camera share of fines against serious
// charges per 10,000 fines, sized by total fines.
type Automation struct {
	base
	buckets aggregate.Buckets
	colors  palette.Assignment
}

func loadRQ2(ctx context.Context, src Sources) (Page, error) {
	res, err := load[dataset.Efficiency](ctx, src.Efficiency, "efficiency")
	if err != nil {
		return nil, eris.Wrap(err, "rq2")
	}
	return NewAutomation(res.Rows, res.Origin), nil
}

// NewAutomation builds the page over rows. Repeated jurisdictions have their
// scores averaged and their fines summed.
func NewAutomation(rows []dataset.Efficiency, origin dataset.Origin) *Automation {
	buckets := aggregate.Grouping[dataset.Efficiency]{
		Key: func(r dataset.Efficiency) string { return r.Jurisdiction },
		Measures: func(r dataset.Efficiency) aggregate.Measures {
			return aggregate.Measures{
				"automation": r.Automation.Value,
				"severity":   r.Severity.Value,
				"fines":      r.TotalFines.Value,
			}
		},
		Order: dataset.JurisdictionCodes(),
	}.Apply(rows)

	cats := buckets.Keys()
	return &Automation{
		base:    base{id: "rq2", title: rq2Title, kind: series.Bubble, categories: cats, origin: origin},
		buckets: buckets,
		colors:  palette.NewAssignment(palette.Tableau10, palette.OkabeIto, cats...),
	}
}

func mean(b aggregate.Bucket, name string) dataset.Number {
	if !b.Has(name) {
		return dataset.Number{}
	}
	return dataset.Num(b.Sum(name) / float64(b.Counts[name]))
}

func (p *Automation) Controls(filter.State) []series.Control { return nil }

func (p *Automation) Describe(s filter.State) series.Description {
	entries := make([]series.Entry, 0, len(p.buckets))
	for _, b := range p.buckets {
		automation, severity := mean(b, "automation"), mean(b, "severity")
		fines := dataset.Num(b.Sum("fines"))
		entries = append(entries, series.Entry{
			Key:   b.Key,
			Value: severity,
			X:     automation.Value,
			Size:  fines.Value,
			Detail: []series.Point{
				{Label: "Automation (%)", Value: automation},
				{Label: "Serious charges per 10k fines", Value: severity},
				{Label: "Total fines", Value: fines},
			},
		})
	}

	domain := SeverityDomain
	return series.Build(series.Input{
		Page:      p.id,
		Title:     p.title,
		Kind:      series.Bubble,
		Unit:      "per 10k fines",
		XLabel:    "Automation (% of fines from cameras)",
		YLabel:    "Serious charges per 10,000 fines",
		Entries:   entries,
		State:     s,
		Colors:    p.colors,
		Precision: aggregate.Tenths,
		Profile:   series.BubbleProfile,
		Domain:    &domain,
		XDomain:   AutomationDomain,
		Guides: []series.Guide{
			{Axis: "x", Value: automationMid, Label: "70% automation"},
			{Axis: "y", Value: severityMid},
		},
		Origin: p.origin,
	})
}
