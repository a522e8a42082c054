package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	jur, age   string
	offences   float64
	licences   float64
	noLicences bool
}

var byJurisdiction = Grouping[row]{
	Key: func(r row) string { return r.jur },
	Measures: func(r row) Measures {
		m := Measures{"offences": r.offences}
		if !r.noLicences {
			m["licences"] = r.licences
		}
		return m
	},
}

func TestRateSumsBeforeDividing(t *testing.T) {
	rows := []row{
		{jur: "NSW", age: "17-25", offences: 100, licences: 1000},
		{jur: "NSW", age: "26-39", offences: 50, licences: 500},
	}
	buckets := byJurisdiction.Apply(rows)
	require.Len(t, buckets, 1)

	nsw, ok := buckets.Get("NSW")
	require.True(t, ok)
	assert.Equal(t, 150.0, nsw.Sum("offences"))
	assert.Equal(t, 1500.0, nsw.Sum("licences"))
	assert.Equal(t, 2, nsw.Rows)

	r, ok := nsw.Rate("offences", "licences")
	require.True(t, ok)
	assert.InDelta(t, 1000.0, r, 1e-9)
}

func TestCombinedRateIsNotMeanOfRates(t *testing.T) {
	rows := []row{
		{jur: "NSW", offences: 10, licences: 100},  // 1000 per 10k
		{jur: "TAS", offences: 1, licences: 1000}, // 10 per 10k
	}
	buckets := byJurisdiction.Apply(rows)
	all := buckets.Combined("all")

	r, ok := all.Rate("offences", "licences")
	require.True(t, ok)
	assert.InDelta(t, 11.0/1100*Per, r, 1e-9)

	var mean float64
	for _, b := range buckets {
		v, _ := b.Rate("offences", "licences")
		mean += v / float64(len(buckets))
	}
	assert.NotEqual(t, Round(mean, Whole), Round(r, Whole))
	assert.Equal(t, 2, all.Rows)
}

func TestRateUndefined(t *testing.T) {
	tests := []struct {
		name     string
		num, den float64
	}{
		{"zero denominator", 5, 0},
		{"negative denominator", 5, -10},
		{"NaN denominator", 5, math.NaN()},
		{"infinite numerator", math.Inf(1), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Rate(tt.num, tt.den)
			assert.False(t, ok)
		})
	}

	buckets := byJurisdiction.Apply([]row{{jur: "NT", offences: 4, noLicences: true}})
	_, ok := buckets[0].Rate("offences", "licences")
	assert.False(t, ok, "missing denominator measure")
}

func TestApplyOrder(t *testing.T) {
	g := Grouping[row]{
		Key:   func(r row) string { return r.age },
		Order: []string{"0-16", "17-25", "26-39"},
	}
	buckets := g.Apply([]row{
		{age: "90+"},
		{age: "26-39"},
		{age: ""},
		{age: "17-25"},
		{age: "26-39"},
		{age: "80-89"},
	})
	assert.Equal(t, []string{"17-25", "26-39", "90+", "80-89"}, buckets.Keys())

	b, _ := buckets.Get("26-39")
	assert.Equal(t, 2, b.Rows)
}

func TestApplySkipsNonFinite(t *testing.T) {
	g := Grouping[row]{
		Key: func(r row) string { return r.jur },
		Measures: func(r row) Measures {
			return Measures{"offences": r.offences}
		},
	}
	b := g.Apply([]row{{jur: "WA", offences: math.NaN()}, {jur: "WA", offences: 3}})[0]
	assert.Equal(t, 3.0, b.Sum("offences"))
	assert.Equal(t, 1, b.Counts["offences"])
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    float64
		ok   bool
		p    Precision
		want string
	}{
		{1234.56, true, Whole, "1235"},
		{1234.56, true, Tenths, "1234.6"},
		{0.05, true, Tenths, "0.1"},
		{12, true, Tenths, "12.0"},
		{12, false, Whole, "N/A"},
		{math.NaN(), true, Whole, "N/A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.v, tt.ok, tt.p), "Format(%v, %v, %d)", tt.v, tt.ok, tt.p)
	}
}

func TestDomain(t *testing.T) {
	d := DomainOf(5, math.NaN(), -2, 9, math.Inf(1))
	require.True(t, d.Valid)
	assert.Equal(t, -2.0, d.Min)
	assert.Equal(t, 9.0, d.Max)
	assert.Equal(t, 11.0, d.Span())

	assert.Equal(t, 0.0, d.Normalize(-2))
	assert.Equal(t, 1.0, d.Normalize(20))
	assert.InDelta(t, 7.0/11, d.Normalize(5), 1e-9)

	flat := DomainOf(3, 3)
	assert.Equal(t, 0.5, flat.Normalize(3))

	var empty Domain
	assert.False(t, empty.Valid)
	assert.Equal(t, 0.5, empty.Normalize(1))
}
