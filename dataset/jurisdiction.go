package dataset

import (
	"strings"
)

// Jurisdiction describes an Australian state or territory.
type Jurisdiction struct {
	Code       string  `json:"code" yaml:"code"`
	Name       string  `json:"name" yaml:"name"`
	Population int     `json:"population" yaml:"population"`
	Lat        float64 `json:"lat" yaml:"lat"`
	Lng        float64 `json:"lng" yaml:"lng"`
}

// Jurisdictions lists the eight states and territories in their conventional
// order. Coordinates are the capital cities.
var Jurisdictions = []Jurisdiction{
	{Code: "NSW", Name: "New South Wales", Population: 8166000, Lat: -33.8688, Lng: 151.2093},
	{Code: "VIC", Name: "Victoria", Population: 6681000, Lat: -37.8136, Lng: 144.9631},
	{Code: "QLD", Name: "Queensland", Population: 5206000, Lat: -27.4698, Lng: 153.0251},
	{Code: "WA", Name: "Western Australia", Population: 2667000, Lat: -31.9505, Lng: 115.8605},
	{Code: "SA", Name: "South Australia", Population: 1771000, Lat: -34.9285, Lng: 138.6007},
	{Code: "TAS", Name: "Tasmania", Population: 541000, Lat: -42.8821, Lng: 147.3272},
	{Code: "ACT", Name: "Australian Capital Territory", Population: 431000, Lat: -35.2809, Lng: 149.1300},
	{Code: "NT", Name: "Northern Territory", Population: 246000, Lat: -12.4634, Lng: 130.8456},
}

var jurisdictionIndex = func() map[string]Jurisdiction {
	m := make(map[string]Jurisdiction, len(Jurisdictions)*2)
	for _, j := range Jurisdictions {
		m[j.Code] = j
		m[strings.ToUpper(j.Name)] = j
	}
	return m
}()

// jurisdictionPrefixes are dropped before lookup. Longer prefixes come first so
// "STATE OF" is tried before "THE".
var jurisdictionPrefixes = []string{"STATE OF ", "THE "}

// NormalizeJurisdiction maps a code or full name, in any case and with stray
// punctuation, to its code. Unknown names are returned upper-cased.
func NormalizeJurisdiction(s string) string {
	upper := strings.ToUpper(strings.TrimSpace(s))
	upper = strings.NewReplacer(".", "", "_", " ").Replace(upper)
	upper = strings.Join(strings.Fields(upper), " ")
	for _, prefix := range jurisdictionPrefixes {
		upper = strings.TrimPrefix(upper, prefix)
	}
	if j, ok := jurisdictionIndex[upper]; ok {
		return j.Code
	}
	return upper
}

// LookupJurisdiction returns the jurisdiction for a code or name.
func LookupJurisdiction(s string) (Jurisdiction, bool) {
	j, ok := jurisdictionIndex[NormalizeJurisdiction(s)]
	return j, ok
}

// JurisdictionCodes returns the codes in conventional order.
func JurisdictionCodes() []string {
	codes := make([]string, len(Jurisdictions))
	for i, j := range Jurisdictions {
		codes[i] = j.Code
	}
	return codes
}
