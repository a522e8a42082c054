package filter

import (
	"strconv"
)

// Kind identifies an interaction event.
type Kind string

const (
	HoverEnter      Kind = "hover"
	HoverLeave      Kind = "leave"
	Click           Kind = "click"
	BackgroundClick Kind = "background"
	Toggle          Kind = "toggle"
	ToggleAll       Kind = "toggle_all"
	Select          Kind = "select"
	ColorBlind      Kind = "colorblind"
	Sort            Kind = "sort"
)

// Event is one user interaction. Key names a category for hover, click and
// toggle events; Control and Value carry selections; Value also carries the
// on/off flag of ToggleAll and ColorBlind and the mode of Sort.
type Event struct {
	Kind    Kind   `json:"kind"`
	Key     string `json:"key,omitempty"`
	Control string `json:"control,omitempty"`
	Value   string `json:"value,omitempty"`
}

// Apply returns the state that follows s after ev. Events naming an unknown or
// disabled category leave the state unchanged.
func Apply(s State, ev Event) State {
	switch ev.Kind {
	case HoverEnter:
		if s.focus.Kind == Isolated || !s.Enabled(ev.Key) {
			return s
		}
		c := s.clone()
		c.focus = Focus{Kind: Hovering, Key: ev.Key}
		return c

	case HoverLeave:
		if s.focus.Kind != Hovering {
			return s
		}
		c := s.clone()
		c.focus = Focus{}
		return c

	case Click:
		if !s.Enabled(ev.Key) {
			return s
		}
		c := s.clone()
		if s.focus.Kind == Isolated && s.focus.Key == ev.Key {
			c.focus = Focus{}
		} else {
			c.focus = Focus{Kind: Isolated, Key: ev.Key}
		}
		return c

	case BackgroundClick:
		if s.focus.Kind == Normal {
			return s
		}
		c := s.clone()
		c.focus = Focus{}
		return c

	case Toggle:
		if !s.Known(ev.Key) {
			return s
		}
		c := s.clone()
		if c.disabled[ev.Key] {
			delete(c.disabled, ev.Key)
		} else {
			c.disabled[ev.Key] = true
		}
		c.focus = Focus{}
		return c

	case ToggleAll:
		c := s.clone()
		on := flag(ev.Value, !s.AllEnabled())
		c.disabled = make(map[string]bool)
		if !on {
			for _, k := range c.categories {
				c.disabled[k] = true
			}
		}
		c.focus = Focus{}
		return c

	case Select:
		if ev.Control == "" {
			return s
		}
		return s.WithSelection(ev.Control, ev.Value)

	case ColorBlind:
		c := s.clone()
		c.colorBlind = flag(ev.Value, !s.colorBlind)
		return c

	case Sort:
		mode := SortMode(ev.Value)
		if mode != SortFixed && mode != SortByRate {
			return s
		}
		c := s.clone()
		c.sort = mode
		return c
	}
	return s
}

// flag parses an on/off value; an empty or unparseable value yields def.
func flag(v string, def bool) bool {
	switch v {
	case "on":
		return true
	case "off":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Replay applies events in order, each to the result of the previous one.
func Replay(s State, events ...Event) State {
	for _, ev := range events {
		s = Apply(s, ev)
	}
	return s
}
