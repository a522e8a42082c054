// Package aggregate groups records into keyed buckets and derives per-10,000
// rates from summed measures.
package aggregate

import (
	"math"
	"strconv"
)

// Per is the rate multiplier: rates are reported per 10,000.
const Per = 10000

// Measures maps a measure name to a record's value for it. Absent values are
// left out of the map rather than stored as zero.
type Measures map[string]float64

// Bucket holds the sums of every measure over the records sharing a key.
type Bucket struct {
	Key  string
	Sums map[string]float64
	// Counts holds the number of records that contributed to each measure.
	Counts map[string]int
	Rows   int
}

// Sum returns the summed measure, or 0 when no record carried it.
func (b Bucket) Sum(name string) float64 {
	return b.Sums[name]
}

// Has reports whether any record contributed to the measure.
func (b Bucket) Has(name string) bool {
	return b.Counts[name] > 0
}

// Rate returns Sum(num)/Sum(den) per 10,000. It is undefined when the
// denominator measure is missing or not positive.
func (b Bucket) Rate(num, den string) (float64, bool) {
	if !b.Has(num) || !b.Has(den) {
		return 0, false
	}
	return Rate(b.Sum(num), b.Sum(den))
}

// Rate returns num/den per 10,000, or false when den is not positive or the
// result is not finite.
func Rate(num, den float64) (float64, bool) {
	if !(den > 0) {
		return 0, false
	}
	r := num / den * Per
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// Grouping describes how records are bucketed.
type Grouping[R any] struct {
	// Key returns the bucket key; an empty key drops the record.
	Key func(R) string
	// Measures returns the record's numeric values by name.
	Measures func(R) Measures
	// Order lists keys that come first, in this order. Other keys follow in
	// first-seen order.
	Order []string
}

// Apply sums the measures of rows per key in a single pass.
func (g Grouping[R]) Apply(rows []R) Buckets {
	index := make(map[string]int)
	var seen []*Bucket
	for _, r := range rows {
		key := g.Key(r)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(seen)
			index[key] = i
			seen = append(seen, newBucket(key))
		}
		b := seen[i]
		b.Rows++
		if g.Measures == nil {
			continue
		}
		for name, v := range g.Measures(r) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			b.Sums[name] += v
			b.Counts[name]++
		}
	}

	out := make(Buckets, 0, len(seen))
	placed := make(map[string]bool, len(seen))
	for _, key := range g.Order {
		if i, ok := index[key]; ok && !placed[key] {
			out = append(out, *seen[i])
			placed[key] = true
		}
	}
	for _, b := range seen {
		if !placed[b.Key] {
			out = append(out, *b)
		}
	}
	return out
}

func newBucket(key string) *Bucket {
	return &Bucket{Key: key, Sums: make(map[string]float64), Counts: make(map[string]int)}
}

// Buckets is an ordered set of buckets with unique keys.
type Buckets []Bucket

// Get returns the bucket for key.
func (bs Buckets) Get(key string) (Bucket, bool) {
	for _, b := range bs {
		if b.Key == key {
			return b, true
		}
	}
	return Bucket{}, false
}

// Keys returns the bucket keys in order.
func (bs Buckets) Keys() []string {
	keys := make([]string, len(bs))
	for i, b := range bs {
		keys[i] = b.Key
	}
	return keys
}

// Combined sums every measure across all buckets into one bucket. A combined
// rate is then a ratio of sums, never a mean of per-bucket rates.
func (bs Buckets) Combined(key string) Bucket {
	out := newBucket(key)
	for _, b := range bs {
		out.Rows += b.Rows
		for name, v := range b.Sums {
			out.Sums[name] += v
		}
		for name, n := range b.Counts {
			out.Counts[name] += n
		}
	}
	return *out
}

// Precision is the number of decimal places a displayed value is rounded to.
type Precision int

const (
	// Whole rounds to the nearest integer, for tables and bars.
	Whole Precision = 0
	// Tenths rounds to one decimal place, for tooltips and detail panels.
	Tenths Precision = 1
)

// Round rounds v half away from zero at precision p.
func Round(v float64, p Precision) float64 {
	scale := math.Pow(10, float64(p))
	return math.Round(v*scale) / scale
}

// NotAvailable is shown in place of an undefined value.
const NotAvailable = "N/A"

// Format renders v at precision p, or NotAvailable when ok is false.
func Format(v float64, ok bool, p Precision) string {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	return strconv.FormatFloat(Round(v, p), 'f', int(p), 64)
}

// Domain is the [Min, Max] extent of a set of values.
type Domain struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Valid bool    `json:"valid"`
}

// Include widens the domain to cover v. Non-finite values are ignored.
func (d *Domain) Include(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if !d.Valid {
		d.Min, d.Max, d.Valid = v, v, true
		return
	}
	d.Min = math.Min(d.Min, v)
	d.Max = math.Max(d.Max, v)
}

// Span returns Max-Min.
func (d Domain) Span() float64 {
	if !d.Valid {
		return 0
	}
	return d.Max - d.Min
}

// Normalize maps v into [0, 1] over the domain, clamping values outside it.
// A domain with no extent maps everything to 0.5.
func (d Domain) Normalize(v float64) float64 {
	if !d.Valid || d.Span() == 0 {
		return 0.5
	}
	t := (v - d.Min) / d.Span()
	return math.Max(0, math.Min(1, t))
}

// DomainOf returns the extent of values.
func DomainOf(values ...float64) Domain {
	var d Domain
	for _, v := range values {
		d.Include(v)
	}
	return d
}
