package annotation

// HLAClass is the Human Leukocyte Antigen presentation category inferred from
// text mentions.
type HLAClass string

const (
	HLAClassI    HLAClass = "I"
	HLAClassII   HLAClass = "II"
	HLAClassBoth HLAClass = "I/II"
)

// Unspecified is the terminal fallback value for every classification axis.
// It must be reached by exhaustion of the rule set, never by an empty-pattern
// match.
const Unspecified = "Unspecified"

// ErrorMarker flags a record whose processing failed outright (fetch error
// with no fallback, panic during classification). Distinct from Unspecified
// so reviewers can tell "nothing matched" from "nothing was classified".
const ErrorMarker = "Error"

// ScenarioMixed is returned when two or more distinct scenario rules match
// the same corpus. Which scenarios were mixed is intentionally not reported;
// callers that need provenance use Classifier.ScenarioMatches.
const ScenarioMixed = "Mixed"

// Classification is the output triple for one record. HLA is derived
// independently of the other two axes; Scenario and Disease are derived
// independently of each other.
type Classification struct {
	HLA      string
	Scenario string
	Disease  string
}

// Unclassified returns the all-Unspecified triple, the result for an empty
// corpus.
func Unclassified() Classification {
	return Classification{HLA: Unspecified, Scenario: Unspecified, Disease: Unspecified}
}

// Failed returns the all-ErrorMarker triple assigned to records whose
// processing raised past the classification core.
func Failed() Classification {
	return Classification{HLA: ErrorMarker, Scenario: ErrorMarker, Disease: ErrorMarker}
}

// NeedsReview reports whether the classification must be routed to the
// manual-review table: any field Unspecified (or the error marker), never
// all-fields. This predicate is the single gate controlling the review
// queue size; the any-field threshold is load-bearing.
func (c Classification) NeedsReview() bool {
	for _, v := range []string{c.HLA, c.Scenario, c.Disease} {
		if v == Unspecified || v == ErrorMarker {
			return true
		}
	}
	return false
}

// Annotation pairs an accession with its classification; one row of the
// output tables.
type Annotation struct {
	Accession      string
	Classification Classification
}
