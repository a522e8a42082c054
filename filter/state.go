// Package filter holds the interaction state of a dashboard page: which
// categories are shown, which one is focused, and the current selections.
//
// A State is an immutable snapshot. Every transition returns a new State and
// leaves the receiver untouched, so a renderer may keep the previous snapshot
// while the next description is computed.
package filter

import (
	"slices"
)

// All is the selection value meaning "no restriction".
const All = "all"

// FocusKind distinguishes the three focus states.
type FocusKind int

const (
	Normal FocusKind = iota
	Hovering
	Isolated
)

func (k FocusKind) String() string {
	switch k {
	case Hovering:
		return "hovering"
	case Isolated:
		return "isolated"
	}
	return "normal"
}

// Focus is the emphasis state. Key is empty for Normal.
type Focus struct {
	Kind FocusKind
	Key  string
}

// SortMode orders series items.
type SortMode string

const (
	SortFixed  SortMode = "fixed"
	SortByRate SortMode = "rate"
)

// State is one snapshot of a page's interaction state.
type State struct {
	categories []string
	disabled   map[string]bool
	focus      Focus
	selections map[string]string
	colorBlind bool
	sort       SortMode
}

// New returns a state with every category enabled, no focus and every
// selection at All.
func New(categories ...string) State {
	return State{
		categories: dedupe(categories),
		sort:       SortFixed,
	}
}

func dedupe(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Categories returns every known category in order.
func (s State) Categories() []string {
	return slices.Clone(s.categories)
}

// Known reports whether key is a category of this state.
func (s State) Known(key string) bool {
	return slices.Contains(s.categories, key)
}

// Enabled reports whether key is shown.
func (s State) Enabled(key string) bool {
	return s.Known(key) && !s.disabled[key]
}

// EnabledKeys returns the shown categories in order.
func (s State) EnabledKeys() []string {
	var out []string
	for _, k := range s.categories {
		if !s.disabled[k] {
			out = append(out, k)
		}
	}
	return out
}

// AllEnabled reports whether every category is shown.
func (s State) AllEnabled() bool {
	for _, k := range s.categories {
		if s.disabled[k] {
			return false
		}
	}
	return true
}

func (s State) Focus() Focus { return s.focus }

// Selection returns the value of a control, or All when unset.
func (s State) Selection(control string) string {
	if v, ok := s.selections[control]; ok && v != "" {
		return v
	}
	return All
}

// Selections returns a copy of every explicit selection.
func (s State) Selections() map[string]string {
	out := make(map[string]string, len(s.selections))
	for k, v := range s.selections {
		out[k] = v
	}
	return out
}

func (s State) ColorBlind() bool { return s.colorBlind }

func (s State) Sort() SortMode {
	if s.sort == "" {
		return SortFixed
	}
	return s.sort
}

// clone copies the maps so mutations of the copy never reach s.
func (s State) clone() State {
	c := s
	c.categories = slices.Clone(s.categories)
	c.disabled = make(map[string]bool, len(s.disabled))
	for k, v := range s.disabled {
		if v {
			c.disabled[k] = true
		}
	}
	c.selections = s.Selections()
	return c
}

// WithCategories replaces the category list after a recompute. Keys seen for
// the first time are enabled, keys no longer present are dropped, and focus on
// a dropped key returns to Normal.
func (s State) WithCategories(keys ...string) State {
	c := s.clone()
	c.categories = dedupe(keys)
	for k := range c.disabled {
		if !c.Known(k) {
			delete(c.disabled, k)
		}
	}
	if c.focus.Kind != Normal && !c.Enabled(c.focus.Key) {
		c.focus = Focus{}
	}
	return c
}

// WithSelection sets a control's value. Focus is kept.
func (s State) WithSelection(control, value string) State {
	c := s.clone()
	if value == "" {
		value = All
	}
	c.selections[control] = value
	return c
}
