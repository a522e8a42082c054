package series

import "github.com/zalepa/infractions/filter"

// Emphasis is how strongly an item is drawn.
type Emphasis struct {
	Opacity     float64 `json:"opacity"`
	StrokeWidth float64 `json:"stroke_width"`
	Focused     bool    `json:"focused"`
}

// Profile sets the opacities used for non-focused items.
type Profile struct {
	IsolatedOthers float64
	HoverOthers    float64
	Stroke         float64
	FocusStroke    float64
}

var (
	// LineProfile dims heavily under isolation and slightly less under hover.
	LineProfile = Profile{IsolatedOthers: 0.1, HoverOthers: 0.15, Stroke: 2.5, FocusStroke: 3.5}
	// BubbleProfile leaves other bubbles at their resting opacity on hover.
	BubbleProfile = Profile{IsolatedOthers: 0.2, HoverOthers: 0.7, Stroke: 1, FocusStroke: 3}
)

// For returns the emphasis of key under focus f.
func (p Profile) For(key string, f filter.Focus) Emphasis {
	switch f.Kind {
	case filter.Isolated, filter.Hovering:
		if f.Key == key {
			return Emphasis{Opacity: 1, StrokeWidth: p.FocusStroke, Focused: true}
		}
		dim := p.HoverOthers
		if f.Kind == filter.Isolated {
			dim = p.IsolatedOthers
		}
		return Emphasis{Opacity: dim, StrokeWidth: p.Stroke}
	}
	return Emphasis{Opacity: 1, StrokeWidth: p.Stroke}
}
