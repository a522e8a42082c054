package pages

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/zalepa/infractions/aggregate"
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/palette"
	"github.com/zalepa/infractions/series"
)

const rq1Title = "Monthly speeding fines by jurisdiction"

// MonthlyFines is the RQ1 line chart: one series of twelve monthly fine
// totals per jurisdiction.
type MonthlyFines struct {
	base
	rows   []dataset.MonthlyFine
	years  []string
	colors palette.Assignment
}

// loadRQ1 prefers the extract carrying a YEAR column. When it is configured,
// the single-period extract is its fallback.
func loadRQ1(ctx context.Context, src Sources) (Page, error) {
	primary, secondary := src.MonthlyByYear, src.Monthly
	if primary == nil {
		primary, secondary = src.Monthly, nil
	}
	if primary == nil {
		return nil, eris.Wrap(dataset.ErrResourceUnavailable, "rq1: no source configured")
	}

	var fallback []dataset.MonthlyFine
	if secondary != nil {
		if res, err := dataset.Load[dataset.MonthlyFine](ctx, secondary, nil); err == nil {
			fallback = res.Rows
		}
	}
	res, err := dataset.Load(ctx, primary, fallback)
	if err != nil {
		return nil, eris.Wrap(err, "rq1")
	}
	return NewMonthlyFines(res.Rows, res.Origin), nil
}

// NewMonthlyFines builds the page over rows.
func NewMonthlyFines(rows []dataset.MonthlyFine, origin dataset.Origin) *MonthlyFines {
	cats := sortedSet(rows, func(r dataset.MonthlyFine) string { return r.Jurisdiction })
	return &MonthlyFines{
		base:   base{id: "rq1", title: rq1Title, kind: series.Line, categories: cats, origin: origin},
		rows:   rows,
		years:  sortedSet(rows, func(r dataset.MonthlyFine) string { return r.Year }),
		colors: palette.NewAssignment(palette.Tableau10, palette.OkabeIto, cats...),
	}
}

func (p *MonthlyFines) Controls(s filter.State) []series.Control {
	if len(p.years) == 0 {
		return nil
	}
	opts := options("All years", p.years...)
	return []series.Control{{
		Name:    "year",
		Label:   "Year",
		Options: opts,
		Value:   choose(s, "year", opts, filter.All),
	}}
}

func monthKey(m int) string { return strconv.Itoa(m) }

func (p *MonthlyFines) year(controls []series.Control) string {
	if len(controls) == 0 {
		return filter.All
	}
	return controls[0].Value
}

// Present lists the jurisdictions with fines in the selected year.
func (p *MonthlyFines) Present(s filter.State) []string {
	year := p.year(p.Controls(s))
	seen := make(map[string]bool)
	for _, r := range p.rows {
		if year == filter.All || r.Year == year {
			seen[r.Jurisdiction] = true
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

func (p *MonthlyFines) Describe(s filter.State) series.Description {
	controls := p.Controls(s)
	year := p.year(controls)

	buckets := aggregate.Grouping[dataset.MonthlyFine]{
		Key: func(r dataset.MonthlyFine) string {
			if year != filter.All && r.Year != year {
				return ""
			}
			return r.Jurisdiction
		},
		Measures: func(r dataset.MonthlyFine) aggregate.Measures {
			return aggregate.Measures{monthKey(r.MonthIndex()): r.Fines.Value, "total": r.Fines.Value}
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
		points := make([]series.Point, 12)
		for m := 1; m <= 12; m++ {
			pt := series.Point{Label: time.Month(m).String()[:3], X: float64(m)}
			if b.Has(monthKey(m)) {
				pt.Value = dataset.Num(b.Sum(monthKey(m)))
				if s.Enabled(key) {
					domain.Include(pt.Value.Value)
				}
			}
			points[m-1] = pt
		}
		entries = append(entries, series.Entry{
			Key:    key,
			Value:  dataset.Num(b.Sum("total")),
			Points: points,
		})
	}

	return series.Build(series.Input{
		Page:      p.id,
		Title:     p.title,
		Kind:      series.Line,
		Unit:      "fines",
		XLabel:    "Month",
		YLabel:    "Speeding fines",
		Entries:   entries,
		State:     s,
		Colors:    p.colors,
		Precision: aggregate.Whole,
		Profile:   series.LineProfile,
		Domain:    &domain,
		XDomain:   aggregate.DomainOf(1, 12),
		Controls:  controls,
		Origin:    p.origin,
	})
}
