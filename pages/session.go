package pages

import (
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/series"
)

// Session owns the interaction state of one open page. Events are applied one
// at a time, each to the state left by the previous one, and every event
// replaces the current description.
type Session struct {
	mu    sync.Mutex
	page  Page
	state filter.State
	desc  series.Description
}

// NewSession opens p in its initial state.
func NewSession(p Page) *Session {
	s := settle(p, p.State())
	return &Session{page: p, state: s, desc: p.Describe(s)}
}

func (s *Session) Page() Page { return s.page }

// State returns the current snapshot.
func (s *Session) State() filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Description returns the description of the current state.
func (s *Session) Description() series.Description {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc
}

// Dispatch applies events in order and returns the resulting description.
func (s *Session) Dispatch(events ...filter.Event) series.Description {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := settle(s.page, filter.Replay(s.state, events...))
	s.state = next
	s.desc = s.page.Describe(next)
	zap.L().Debug("session dispatch",
		zap.String("page", s.page.ID()),
		zap.Int("events", len(events)),
		zap.String("focus", s.desc.Focus),
		zap.Int("items", len(s.desc.Items)),
	)
	return s.desc
}

// ErrorPage stands in for a page whose data could not be loaded. It describes
// itself with an inline message and no items.
type ErrorPage struct {
	base
	Err error
}

// NewErrorPage returns the error page for id.
func NewErrorPage(id, title string, kind series.Kind, err error) *ErrorPage {
	return &ErrorPage{base: base{id: id, title: title, kind: kind}, Err: err}
}

// Message is the text shown in place of the chart.
func (p *ErrorPage) Message() string {
	switch {
	case eris.Is(p.Err, dataset.ErrNoUsableRows):
		return "No usable data rows were found for this chart."
	case eris.Is(p.Err, dataset.ErrResourceUnavailable):
		return "The data for this chart could not be loaded."
	}
	return "This chart is unavailable."
}

func (p *ErrorPage) Controls(filter.State) []series.Control { return nil }

func (p *ErrorPage) Describe(filter.State) series.Description {
	return series.WithMessage(p.id, p.title, p.kind, p.Message())
}
