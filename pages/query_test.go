package pages

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
)

func TestQueryEvents(t *testing.T) {
	det, err := dataset.Fallback[dataset.Detection]("detection")
	require.NoError(t, err)
	p := NewDetection(det, dataset.OriginFallback)

	q := url.Values{}
	q.Set("year", "2024")
	q.Set("enabled", "NSW, VIC,NSW")
	q.Set("unknown", "x")
	assert.Equal(t, []filter.Event{
		{Kind: filter.Select, Control: "year", Value: "2024"},
		{Kind: filter.ToggleAll, Value: "off"},
		{Kind: filter.Toggle, Key: "NSW"},
		{Kind: filter.Toggle, Key: "VIC"},
	}, QueryEvents(p, q))

	s := QueryState(p, q)
	assert.Equal(t, []string{"NSW", "VIC"}, s.EnabledKeys())
	assert.Equal(t, filter.All, s.Selection("unknown"))
}

func TestQueryStateFocusAndSort(t *testing.T) {
	eff, err := dataset.Fallback[dataset.Efficiency]("efficiency")
	require.NoError(t, err)
	p := NewAutomation(eff, dataset.OriginFallback)

	s := QueryState(p, url.Values{"focus": {"QLD"}, "colorblind": {"on"}, "sort": {"rate"}})
	assert.Equal(t, filter.Focus{Kind: filter.Isolated, Key: "QLD"}, s.Focus())
	assert.True(t, s.ColorBlind())
	assert.Equal(t, filter.SortByRate, s.Sort())

	s = QueryState(p, url.Values{"sort": {"sideways"}})
	assert.Equal(t, p.State().Sort(), s.Sort())
}
