package render

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gonum.org/v1/plot"

	"github.com/zalepa/infractions/aggregate"
	"github.com/zalepa/infractions/dataset"
)

var printer = message.NewPrinter(language.English)

// FormatNumber renders v with thousands separators, rounded to p decimal
// places. Absent values render as N/A.
func FormatNumber(v dataset.Number, p aggregate.Precision) string {
	if !v.Valid {
		return aggregate.NotAvailable
	}
	digits := int(p)
	return printer.Sprint(number.Decimal(aggregate.Round(v.Value, p),
		number.MinFractionDigits(digits), number.MaxFractionDigits(digits)))
}

func formatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 0, 64) + "k"
	default:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
}

// labelTicks places one named tick per position, starting at offset. When
// there are more than twelve, only every nth is labelled.
type labelTicks struct {
	labels []string
	offset float64
}

func (lt labelTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	n := len(lt.labels)
	if n == 0 {
		return ticks
	}

	step := 1
	if n > 12 {
		step = (n + 11) / 12
	}

	for i := 0; i < n; i++ {
		t := plot.Tick{Value: float64(i) + lt.offset}
		if i%step == 0 {
			t.Label = pdfSafe(lt.labels[i])
		}
		ticks = append(ticks, t)
	}
	return ticks
}

type numTicks struct{}

func (numTicks) Ticks(min, max float64) []plot.Tick {
	t := plot.DefaultTicks{}
	ticks := t.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = formatCompact(ticks[i].Value)
		}
	}
	return ticks
}
