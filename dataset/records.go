package dataset

import (
	"math"
	"strings"
)

// AllAges is the aggregate age-group label some exports include alongside the
// individual groups. It is never counted as a group of its own.
const AllAges = "All ages"

// AgeGroups is the fixed display order for age groups.
var AgeGroups = []string{"0-16", "17-25", "26-39", "40-64", "65 and over"}

// Row is implemented by every record schema. Rows that are not Valid are
// dropped during decoding and counted as malformed.
type Row interface {
	Valid() bool
}

type normalizer interface {
	normalize()
}

// MonthlyFine is one row of the monthly speeding-fine extracts (Q1.csv, and
// Q2.csv which adds a YEAR column).
type MonthlyFine struct {
	Year         string `csv:"YEAR" yaml:"year" json:"year,omitempty"`
	Jurisdiction string `csv:"JURISDICTION" yaml:"jurisdiction" json:"jurisdiction"`
	Month        Number `csv:"Month" yaml:"month" json:"month"`
	Fines        Number `csv:"Sum(FINES)" yaml:"fines" json:"fines"`
}

func (r *MonthlyFine) normalize() {
	r.Year = strings.TrimSpace(r.Year)
	r.Jurisdiction = NormalizeJurisdiction(r.Jurisdiction)
}

// MonthIndex returns the month as 1..12, or 0 when it is not a calendar month.
func (r MonthlyFine) MonthIndex() int {
	if !r.Month.Valid || r.Month.Value != math.Trunc(r.Month.Value) {
		return 0
	}
	m := int(r.Month.Value)
	if m < 1 || m > 12 {
		return 0
	}
	return m
}

func (r MonthlyFine) Valid() bool {
	return r.Jurisdiction != "" && r.MonthIndex() != 0 && r.Fines.Valid
}

// Efficiency is one row of the jurisdiction efficiency index: the share of
// fines issued by cameras against serious charges per 10,000 fines.
type Efficiency struct {
	Jurisdiction string `csv:"JURISDICTION" yaml:"jurisdiction" json:"jurisdiction"`
	Automation   Number `csv:"Automation_Score" yaml:"automation" json:"automation"`
	Severity     Number `csv:"Severity_Score" yaml:"severity" json:"severity"`
	TotalFines   Number `csv:"Total_Fines_Calc" yaml:"total_fines" json:"total_fines"`
}

func (r *Efficiency) normalize() {
	r.Jurisdiction = NormalizeJurisdiction(r.Jurisdiction)
}

func (r Efficiency) Valid() bool {
	return r.Jurisdiction != "" && r.Automation.Valid && r.Severity.Valid && r.TotalFines.Valid
}

// Detection is one row of the camera versus police detection extract.
type Detection struct {
	Year         string `csv:"YEAR" yaml:"year" json:"year"`
	Jurisdiction string `csv:"JURISDICTION" yaml:"jurisdiction" json:"jurisdiction"`
	CameraPer10k Number `csv:"Camera_offence_per10k" yaml:"camera_per10k" json:"camera_per10k"`
	PolicePer10k Number `csv:"Police_offence_per10k" yaml:"police_per10k" json:"police_per10k"`
	CameraPct    Number `csv:"Camera_Percentage" yaml:"camera_pct" json:"camera_pct"`
	PolicePct    Number `csv:"Police_Percentage" yaml:"police_pct" json:"police_pct"`
}

func (r *Detection) normalize() {
	r.Year = strings.TrimSpace(r.Year)
	r.Jurisdiction = NormalizeJurisdiction(r.Jurisdiction)
}

func (r Detection) Valid() bool {
	if r.Jurisdiction == "" || r.Year == "" {
		return false
	}
	return r.CameraPer10k.Valid || r.PolicePer10k.Valid || r.CameraPct.Valid || r.PolicePct.Valid
}

// AgeOffence is one row of the age-group offence extract (Q4DATA.csv).
type AgeOffence struct {
	Jurisdiction   string `csv:"JURISDICTION" yaml:"jurisdiction" json:"jurisdiction"`
	AgeGroup       string `csv:"AGE_GROUP" yaml:"age_group" json:"age_group"`
	Offences       Number `csv:"Sum(Combined Offences)" yaml:"offences" json:"offences"`
	LicenceHolders Number `csv:"License_holder" yaml:"licence_holders" json:"licence_holders"`
}

func (r *AgeOffence) normalize() {
	r.Jurisdiction = NormalizeJurisdiction(r.Jurisdiction)
	r.AgeGroup = strings.TrimSpace(r.AgeGroup)
}

func (r AgeOffence) Valid() bool {
	return r.Jurisdiction != "" && r.AgeGroup != "" && r.AgeGroup != AllAges && r.Offences.Valid
}

// AgeInfraction is one row of the combined fines, arrests and charges extract
// (final.csv).
type AgeInfraction struct {
	Year           string `csv:"year" yaml:"year" json:"year"`
	Jurisdiction   string `csv:"jurisdiction" yaml:"jurisdiction" json:"jurisdiction"`
	AgeGroup       string `csv:"ageGroup" yaml:"age_group" json:"age_group"`
	Fines          Number `csv:"fines" yaml:"fines" json:"fines"`
	Arrests        Number `csv:"arrests" yaml:"arrests" json:"arrests"`
	Charges        Number `csv:"charges" yaml:"charges" json:"charges"`
	LicenceHolders Number `csv:"licenceHolders" yaml:"licence_holders" json:"licence_holders"`
}

func (r *AgeInfraction) normalize() {
	r.Year = strings.TrimSpace(r.Year)
	r.Jurisdiction = NormalizeJurisdiction(r.Jurisdiction)
	r.AgeGroup = strings.TrimSpace(r.AgeGroup)
}

// Total sums the infraction components that are present. It is absent only
// when every component is.
func (r AgeInfraction) Total() Number {
	var sum float64
	var present bool
	for _, n := range []Number{r.Fines, r.Arrests, r.Charges} {
		if n.Valid {
			sum += n.Value
			present = true
		}
	}
	if !present {
		return Number{}
	}
	return Num(sum)
}

func (r AgeInfraction) Valid() bool {
	if r.Year == "" || r.Jurisdiction == "" || r.AgeGroup == "" || r.AgeGroup == AllAges {
		return false
	}
	if !r.LicenceHolders.Valid || r.LicenceHolders.Value <= 0 {
		return false
	}
	return r.Total().Valid
}
