package dataset

import "testing"

func TestNormalizeJurisdiction(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"NSW", "NSW"},
		{"nsw", "NSW"},
		{" Vic ", "VIC"},
		{"New South Wales", "NSW"},
		{"new_south_wales", "NSW"},
		{"N.S.W.", "NSW"},
		{"State of Queensland", "QLD"},
		{"The Australian Capital Territory", "ACT"},
		{"Northern  Territory", "NT"},
		// Unknown names pass through upper-cased.
		{"Jervis Bay", "JERVIS BAY"},
		{"", ""},
	}
	for _, tt := range tests {
		got := NormalizeJurisdiction(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeJurisdiction(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLookupJurisdiction(t *testing.T) {
	j, ok := LookupJurisdiction("Tasmania")
	if !ok {
		t.Fatal("Tasmania not found")
	}
	if j.Code != "TAS" || j.Population != 541000 {
		t.Errorf("got %+v", j)
	}
	if _, ok := LookupJurisdiction("Auckland"); ok {
		t.Error("Auckland should not resolve")
	}
	if got := JurisdictionCodes(); len(got) != 8 || got[0] != "NSW" || got[7] != "NT" {
		t.Errorf("JurisdictionCodes() = %v", got)
	}
}
