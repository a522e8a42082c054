// Package pages wires the dataset, aggregate, filter and series packages into
// the five research-question pages of the dashboard.
package pages

import (
	"context"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zalepa/infractions/aggregate"
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/series"
)

// ErrUnknownPage is returned for a page id that is not registered.
var ErrUnknownPage = eris.New("pages: unknown page")

// Page is one chart of the dashboard, bound to its loaded rows.
type Page interface {
	ID() string
	Title() string
	Kind() series.Kind
	// Categories lists every key the page can show, in display order.
	Categories() []string
	// State returns the initial interaction state, with default selections.
	State() filter.State
	Controls(s filter.State) []series.Control
	Describe(s filter.State) series.Description
}

// narrowing is implemented by pages whose selections change which
// categories have data.
type narrowing interface {
	Present(s filter.State) []string
}

// settle restricts s to the categories p has data for under the selections
// of s.
func settle(p Page, s filter.State) filter.State {
	if n, ok := p.(narrowing); ok {
		return s.WithCategories(n.Present(s)...)
	}
	return s
}

// Sources locates the dataset behind each page. A nil source is treated as
// unavailable.
type Sources struct {
	Monthly        dataset.Source
	MonthlyByYear  dataset.Source
	Efficiency     dataset.Source
	Detection      dataset.Source
	AgeOffences    dataset.Source
	AgeInfractions dataset.Source
}

type loader struct {
	title string
	kind  series.Kind
	load  func(ctx context.Context, src Sources) (Page, error)
}

var registry = map[string]loader{
	"rq1": {rq1Title, series.Line, loadRQ1},
	"rq2": {rq2Title, series.Bubble, loadRQ2},
	"rq3": {rq3Title, series.Choropleth, loadRQ3},
	"rq4": {rq4Title, series.Choropleth, loadRQ4},
	"rq5": {rq5Title, series.Bubble, loadRQ5},
}

// IDs lists the page ids in dashboard order.
var IDs = []string{"rq1", "rq2", "rq3", "rq4", "rq5"}

// Known reports whether id names a page.
func Known(id string) bool {
	_, ok := registry[id]
	return ok
}

// Load reads the page's dataset and builds the page. When the data cannot be
// loaded and there is no fallback, an ErrorPage is returned together with the
// error, so callers can still show the page.
func Load(ctx context.Context, id string, src Sources) (Page, error) {
	l, ok := registry[id]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownPage, "%q", id)
	}
	p, err := l.load(ctx, src)
	if err != nil {
		zap.L().Error("page unavailable", zap.String("page", id), zap.Error(err))
		return NewErrorPage(id, l.title, l.kind, err), err
	}
	return p, nil
}

// LoadAll loads every page concurrently. Pages whose data failed to load are
// returned as ErrorPages; the error is only set when ctx is cancelled.
func LoadAll(ctx context.Context, src Sources) ([]Page, error) {
	out := make([]Page, len(IDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range IDs {
		g.Go(func() error {
			p, _ := Load(gctx, id, src)
			out[i] = p
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pages: load")
	}
	return out, nil
}

// Set is a loaded dashboard, looked up by page id.
type Set struct {
	mu    sync.RWMutex
	pages []Page
}

// NewSet indexes pages in the given order.
func NewSet(pages ...Page) *Set {
	return &Set{pages: slices.Clone(pages)}
}

// Get returns the page with id.
func (s *Set) Get(id string) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.pages {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, eris.Wrapf(ErrUnknownPage, "%q", id)
}

// All returns the pages in order.
func (s *Set) All() []Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.pages)
}

// Replace swaps in a reloaded page.
func (s *Set) Replace(p Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, old := range s.pages {
		if old.ID() == p.ID() {
			s.pages[i] = p
			return
		}
	}
	s.pages = append(s.pages, p)
}

// load reads one dataset through Load, using the named embedded fallback.
func load[T dataset.Row](ctx context.Context, src dataset.Source, fallback string) (dataset.Result[T], error) {
	rows, err := dataset.Fallback[T](fallback)
	if err != nil {
		return dataset.Result[T]{}, err
	}
	if src == nil {
		if len(rows) == 0 {
			return dataset.Result[T]{}, eris.Wrap(dataset.ErrResourceUnavailable, "no source configured")
		}
		zap.L().Warn("no source configured, using fallback", zap.String("dataset", fallback))
		return dataset.Result[T]{
			Rows:   rows,
			Origin: dataset.OriginFallback,
			Source: "embedded",
			Cause:  dataset.ErrResourceUnavailable,
		}, nil
	}
	return dataset.Load(ctx, src, rows)
}

// base carries what every page has in common.
type base struct {
	id         string
	title      string
	kind       series.Kind
	categories []string
	origin     dataset.Origin
}

func (b base) ID() string { return b.id }
func (b base) Title() string { return b.title }
func (b base) Kind() series.Kind { return b.kind }
func (b base) Categories() []string { return slices.Clone(b.categories) }
func (b base) State() filter.State { return filter.New(b.categories...) }

// ratio returns the per-10k rate of two bucket measures, absent when it is
// undefined.
func ratio(b aggregate.Bucket, num, den string) dataset.Number {
	v, ok := b.Rate(num, den)
	if !ok {
		return dataset.Number{}
	}
	return dataset.Num(v)
}

// options builds control options from values, with an optional leading All.
func options(all string, values ...string) []series.Option {
	var out []series.Option
	if all != "" {
		out = append(out, series.Option{Value: filter.All, Label: all})
	}
	for _, v := range values {
		out = append(out, series.Option{Value: v, Label: v})
	}
	return out
}

// choose returns the selection of control when it is one of the options,
// else def.
func choose(s filter.State, control string, opts []series.Option, def string) string {
	v := s.Selection(control)
	for _, o := range opts {
		if o.Value == v {
			return v
		}
	}
	return def
}

// sortedSet returns the distinct non-empty values of key over rows, sorted.
func sortedSet[T any](rows []T, key func(T) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		k := key(r)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ordered returns the keys of present in the order of order, followed by any
// others sorted.
func ordered(order []string, present []string) []string {
	var out []string
	for _, k := range order {
		if slices.Contains(present, k) {
			out = append(out, k)
		}
	}
	var rest []string
	for _, k := range present {
		if !slices.Contains(order, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}
