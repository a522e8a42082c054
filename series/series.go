// Package series turns aggregated values and an interaction state into a
// render description: the ordered items a chart or map draws, with colours,
// emphasis and axis metadata.
package series

import (
	"image/color"
	"sort"

	"github.com/zalepa/infractions/aggregate"
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/palette"
)

// Kind is the chart family a description is drawn as.
type Kind string

const (
	Line       Kind = "line"
	Bar        Kind = "bar"
	Bubble     Kind = "bubble"
	Lollipop   Kind = "lollipop"
	Choropleth Kind = "choropleth"
)

// NoDataMessage is shown when the filters leave nothing to draw.
const NoDataMessage = "No data available for selected filters"

// Point is one value along an item's x axis.
type Point struct {
	Label string         `json:"label"`
	X     float64        `json:"x"`
	Value dataset.Number `json:"value"`
	Text  string         `json:"text"`
}

// Item is one drawable series, bar, bubble or region.
type Item struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Value    dataset.Number `json:"value"`
	Text     string         `json:"text"`
	X        float64        `json:"x,omitempty"`
	Size     float64        `json:"size,omitempty"`
	Color    string         `json:"color"`
	Emphasis Emphasis       `json:"emphasis"`
	Points   []Point        `json:"points,omitempty"`
	Detail   []Point        `json:"detail,omitempty"`
}

// LegendEntry describes one category in the legend, shown or not.
type LegendEntry struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Color   string `json:"color"`
	Enabled bool   `json:"enabled"`
}

// Option is one choice of a selection control.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Control is a selection control and its current value.
type Control struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
	Value   string   `json:"value"`
}

// Scale is the sequential colour legend of a choropleth.
type Scale struct {
	Ramp   string          `json:"ramp"`
	Domain aggregate.Domain `json:"domain"`
	Stops  []string        `json:"stops"`
	NoData string          `json:"no_data"`
}

// Guide is a reference line across the plot, such as a quadrant divider.
type Guide struct {
	Axis  string  `json:"axis"`
	Value float64 `json:"value"`
	Label string  `json:"label,omitempty"`
}

// Description is everything a renderer needs to draw one page.
type Description struct {
	Page       string           `json:"page"`
	Title      string           `json:"title"`
	Kind       Kind             `json:"kind"`
	Unit       string           `json:"unit,omitempty"`
	XLabel     string           `json:"x_label,omitempty"`
	YLabel     string           `json:"y_label,omitempty"`
	Domain     aggregate.Domain `json:"domain"`
	XDomain    aggregate.Domain `json:"x_domain"`
	Guides     []Guide          `json:"guides,omitempty"`
	Items      []Item           `json:"items"`
	Legend     []LegendEntry    `json:"legend,omitempty"`
	Controls   []Control        `json:"controls,omitempty"`
	Scale      *Scale           `json:"scale,omitempty"`
	Focus      string           `json:"focus"`
	FocusKey   string           `json:"focus_key,omitempty"`
	ColorBlind bool             `json:"color_blind"`
	Sort       filter.SortMode  `json:"sort"`
	Message    string           `json:"message,omitempty"`
	Origin     dataset.Origin   `json:"origin,omitempty"`
	// Categorical places items at successive x positions in item order.
	Categorical bool `json:"categorical,omitempty"`
}

// Entry is a candidate item before filtering, in the page's fixed order.
type Entry struct {
	Key    string
	Label  string
	Value  dataset.Number
	X      float64
	Size   float64
	Points []Point
	Detail []Point
	// Fill overrides the category colour, as map regions do.
	Fill *color.RGBA
}

// Input configures Build.
type Input struct {
	Page   string
	Title  string
	Kind   Kind
	Unit   string
	XLabel string
	YLabel string

	Entries   []Entry
	State     filter.State
	Colors    palette.Assignment
	Precision aggregate.Precision
	Profile   Profile
	// Sortable lets the state's sort mode reorder items.
	Sortable bool
	// Domain fixes the value domain; when nil it is computed from the shown
	// values.
	Domain  *aggregate.Domain
	XDomain aggregate.Domain
	Guides  []Guide
	Scale   *Scale
	Origin  dataset.Origin
	// Categorical places items along the x axis in display order.
	Categorical bool
	// Controls are copied into the description unchanged.
	Controls []Control
}

// Build produces the description for the enabled entries of in.
func Build(in Input) Description {
	s := in.State
	profile := in.Profile
	if profile == (Profile{}) {
		profile = LineProfile
	}

	d := Description{
		Page:        in.Page,
		Title:       in.Title,
		Kind:        in.Kind,
		Unit:        in.Unit,
		XLabel:      in.XLabel,
		YLabel:      in.YLabel,
		XDomain:     in.XDomain,
		Guides:      in.Guides,
		Categorical: in.Categorical,
		Controls:    in.Controls,
		Scale:       in.Scale,
		Focus:       s.Focus().Kind.String(),
		FocusKey:    s.Focus().Key,
		ColorBlind:  s.ColorBlind(),
		Sort:        s.Sort(),
		Origin:      in.Origin,
		Items:       []Item{},
	}

	for _, e := range in.Entries {
		if !s.Enabled(e.Key) {
			continue
		}
		c := in.Colors.Color(e.Key, s.ColorBlind())
		if e.Fill != nil {
			c = *e.Fill
		}
		item := Item{
			Key:      e.Key,
			Label:    label(e),
			Value:    e.Value,
			Text:     aggregate.Format(e.Value.Value, e.Value.Valid, in.Precision),
			X:        e.X,
			Size:     e.Size,
			Color:    palette.Hex(c),
			Emphasis: profile.For(e.Key, s.Focus()),
			Points:   formatPoints(e.Points, in.Precision),
			Detail:   formatPoints(e.Detail, in.Precision),
		}
		d.Items = append(d.Items, item)
	}

	if in.Sortable && s.Sort() == filter.SortByRate {
		SortByValue(d.Items)
	}

	if in.Domain != nil {
		d.Domain = *in.Domain
	} else {
		d.Domain = valueDomain(d.Items)
	}

	for _, k := range s.Categories() {
		d.Legend = append(d.Legend, LegendEntry{
			Key:     k,
			Label:   legendLabel(in.Entries, k),
			Color:   palette.Hex(in.Colors.Color(k, s.ColorBlind())),
			Enabled: s.Enabled(k),
		})
	}

	if len(d.Items) == 0 {
		d.Message = NoDataMessage
	}
	return d
}

func label(e Entry) string {
	if e.Label != "" {
		return e.Label
	}
	return e.Key
}

func legendLabel(entries []Entry, key string) string {
	for _, e := range entries {
		if e.Key == key {
			return label(e)
		}
	}
	return key
}

func formatPoints(pts []Point, p aggregate.Precision) []Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]Point, len(pts))
	for i, pt := range pts {
		pt.Text = aggregate.Format(pt.Value.Value, pt.Value.Valid, p)
		out[i] = pt
	}
	return out
}

func valueDomain(items []Item) aggregate.Domain {
	var d aggregate.Domain
	for _, it := range items {
		if it.Value.Valid {
			d.Include(it.Value.Value)
		}
		for _, pt := range it.Points {
			if pt.Value.Valid {
				d.Include(pt.Value.Value)
			}
		}
	}
	return d
}

// SortByValue orders items by descending value. The sort is stable, so equal
// values keep their fixed order, and undefined values go last.
func SortByValue(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Value, items[j].Value
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Valid && a.Value > b.Value
	})
}

// WithMessage returns a description carrying only an inline message, used
// when a page's data cannot be shown at all.
func WithMessage(page, title string, kind Kind, msg string) Description {
	return Description{
		Page:    page,
		Title:   title,
		Kind:    kind,
		Items:   []Item{},
		Focus:   filter.Normal.String(),
		Sort:    filter.SortFixed,
		Message: msg,
	}
}
