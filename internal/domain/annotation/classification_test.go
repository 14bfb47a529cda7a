package annotation

import "testing"

func TestNeedsReview_AnyFieldThreshold(t *testing.T) {
	cases := []struct {
		name string
		c    Classification
		want bool
	}{
		{"fully classified", Classification{HLA: "I", Scenario: "Cancer", Disease: "Melanoma"}, false},
		{"hla unspecified", Classification{HLA: Unspecified, Scenario: "Cancer", Disease: "Melanoma"}, true},
		{"scenario unspecified", Classification{HLA: "I", Scenario: Unspecified, Disease: "Melanoma"}, true},
		{"disease unspecified", Classification{HLA: "I", Scenario: "Cancer", Disease: Unspecified}, true},
		{"all unspecified", Unclassified(), true},
		{"failed record", Failed(), true},
		{"mixed scenario alone is fine", Classification{HLA: "I/II", Scenario: ScenarioMixed, Disease: "Cancer"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.NeedsReview(); got != tc.want {
				t.Errorf("NeedsReview(%+v) = %v, want %v", tc.c, got, tc.want)
			}
		})
	}
}

func TestFailed_DistinctFromUnclassified(t *testing.T) {
	if Failed() == Unclassified() {
		t.Fatal("the error marker must be distinguishable from Unspecified")
	}
	if Failed().HLA != ErrorMarker {
		t.Errorf("Failed().HLA = %q, want %q", Failed().HLA, ErrorMarker)
	}
}
