package annotation

import (
	"github.com/turtacn/hla-annotator/pkg/errors"
)

// Classifier applies the three rule sets against a normalized corpus.
// It holds no mutable state after construction, so a single instance is safe
// for concurrent use across records. Rule sets are injected rather than read
// from package globals so tests can supply synthetic tables.
type Classifier struct {
	rules *RuleSets
}

// NewClassifier validates the bundle and returns a ready classifier.
// The HLA rule set must define both reserved labels; without them HLA
// resolution could never produce anything but Unspecified.
func NewClassifier(rules *RuleSets) (*Classifier, error) {
	if rules == nil || rules.HLA == nil || rules.Scenario == nil || rules.Disease == nil {
		return nil, errors.Validation("classifier requires all three rule sets")
	}
	if _, ok := rules.HLA.Lookup(RuleHLAClassI); !ok {
		return nil, errors.Newf(errors.ErrCodeValidation, "hla rule set is missing the %s rule", RuleHLAClassI)
	}
	if _, ok := rules.HLA.Lookup(RuleHLAClassII); !ok {
		return nil, errors.Newf(errors.ErrCodeValidation, "hla rule set is missing the %s rule", RuleHLAClassII)
	}
	return &Classifier{rules: rules}, nil
}

// Classify resolves the three axes for one corpus. Pure function of
// (corpus, rule sets): no randomness, no map iteration, so classifying the
// same record twice always yields identical output.
func (c *Classifier) Classify(corpus string) Classification {
	if corpus == "" {
		return Unclassified()
	}
	return Classification{
		HLA:      c.resolveHLA(corpus),
		Scenario: c.resolveScenario(corpus),
		Disease:  c.resolveDisease(corpus),
	}
}

// resolveHLA evaluates both class patterns unconditionally; order between
// them is irrelevant because the result depends on the combination.
func (c *Classifier) resolveHLA(corpus string) string {
	classI, _ := c.rules.HLA.Lookup(RuleHLAClassI)
	classII, _ := c.rules.HLA.Lookup(RuleHLAClassII)

	hasI := classI.Matches(corpus)
	hasII := classII.Matches(corpus)

	switch {
	case hasI && hasII:
		return string(HLAClassBoth)
	case hasI:
		return string(HLAClassI)
	case hasII:
		return string(HLAClassII)
	default:
		return Unspecified
	}
}

// resolveScenario collapses the scenario match set: none → Unspecified,
// one → that label, several → Mixed. The participating labels are not
// reported; callers needing provenance use ScenarioMatches.
func (c *Classifier) resolveScenario(corpus string) string {
	matches := c.ScenarioMatches(corpus)
	switch len(matches) {
	case 0:
		return Unspecified
	case 1:
		return matches[0]
	default:
		return ScenarioMixed
	}
}

// ScenarioMatches returns the distinct scenario labels whose patterns match
// the corpus, in configured order with repeated labels deduplicated.
func (c *Classifier) ScenarioMatches(corpus string) []string {
	var matches []string
	seen := make(map[string]bool)
	for _, rule := range c.rules.Scenario.Rules {
		if seen[rule.Label] {
			continue
		}
		if rule.Matches(corpus) {
			seen[rule.Label] = true
			matches = append(matches, rule.Label)
		}
	}
	return matches
}

// resolveDisease walks the disease rules strictly in configured priority
// order and returns the first match. The ordering is correctness-critical:
// a specific label like Melanoma must be declared before — and therefore win
// over — the general Cancer bucket even when both patterns match.
func (c *Classifier) resolveDisease(corpus string) string {
	for _, rule := range c.rules.Disease.Rules {
		if rule.Matches(corpus) {
			return rule.Label
		}
	}
	return Unspecified
}
