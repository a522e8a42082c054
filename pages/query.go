package pages

import (
	"net/url"
	"strings"

	"github.com/zalepa/infractions/filter"
)

// QueryEvents turns query parameters into the events that lead from
// the page's initial state to the requested one. Every control the page
// offers is read by name; colorblind, sort, enabled (comma separated keys)
// and focus (an isolated key) apply to all pages.
func QueryEvents(p Page, q url.Values) []filter.Event {
	var events []filter.Event
	for _, c := range p.Controls(p.State()) {
		if q.Has(c.Name) {
			events = append(events, filter.Event{Kind: filter.Select, Control: c.Name, Value: q.Get(c.Name)})
		}
	}
	if q.Has("enabled") {
		events = append(events, filter.Event{Kind: filter.ToggleAll, Value: "off"})
		seen := make(map[string]bool)
		for _, key := range strings.Split(q.Get("enabled"), ",") {
			key = strings.TrimSpace(key)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			events = append(events, filter.Event{Kind: filter.Toggle, Key: key})
		}
	}
	if q.Has("colorblind") {
		events = append(events, filter.Event{Kind: filter.ColorBlind, Value: q.Get("colorblind")})
	}
	if q.Has("sort") {
		events = append(events, filter.Event{Kind: filter.Sort, Value: q.Get("sort")})
	}
	if key := q.Get("focus"); key != "" {
		events = append(events, filter.Event{Kind: filter.Click, Key: key})
	}
	return events
}

// QueryState is the state described by q.
func QueryState(p Page, q url.Values) filter.State {
	return settle(p, filter.Replay(p.State(), QueryEvents(p, q)...))
}
