package pages

import (
	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
)

// Record is one exported value of a page: an item, or one point of an item.
type Record struct {
	Page    string         `csv:"page" json:"page"`
	Key     string         `csv:"key" json:"key"`
	Label   string         `csv:"label" json:"label"`
	Point   string         `csv:"point,omitempty" json:"point,omitempty"`
	Measure string         `csv:"measure" json:"measure"`
	Value   dataset.Number `csv:"value" json:"value"`
	Text    string         `csv:"text" json:"text"`
}

// Table returns the values shown by p in state s, item by item. Items drawn
// as a line export one record per point.
func Table(p Page, s filter.State) []Record {
	d := p.Describe(s)
	var out []Record
	for _, it := range d.Items {
		if len(it.Points) == 0 {
			out = append(out, Record{
				Page:    d.Page,
				Key:     it.Key,
				Label:   it.Label,
				Measure: d.Unit,
				Value:   it.Value,
				Text:    it.Text,
			})
			continue
		}
		for _, pt := range it.Points {
			out = append(out, Record{
				Page:    d.Page,
				Key:     it.Key,
				Label:   it.Label,
				Point:   pt.Label,
				Measure: d.Unit,
				Value:   pt.Value,
				Text:    pt.Text,
			})
		}
	}
	return out
}
