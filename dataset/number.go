package dataset

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Number is a numeric cell that may be absent. Cells that cannot be coerced
// to a finite value are absent rather than zero.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a present Number.
func Num(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// ParseNumber strips currency symbols, thousands separators, percent signs and
// anything else that is not a digit, point or minus sign, then parses the rest.
func ParseNumber(s string) Number {
	s = nonNumeric.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return Number{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}
	}
	return Num(v)
}

// Or returns the value, or def when absent.
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// UnmarshalText never fails; malformed cells become absent.
func (n *Number) UnmarshalText(b []byte) error {
	*n = ParseNumber(string(b))
	return nil
}

func (n Number) MarshalText() ([]byte, error) {
	if !n.Valid {
		return []byte{}, nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

func (n *Number) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*n = Number{}
		return nil
	}
	*n = ParseNumber(value.Value)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Number{}
		return nil
	}
	*n = ParseNumber(strings.Trim(string(b), `"`))
	return nil
}
