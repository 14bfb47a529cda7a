package annotation

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/hla-annotator/pkg/errors"
)

// Reserved labels in the HLA rule set.
const (
	RuleHLAClassI  = "HLA_I"
	RuleHLAClassII = "HLA_II"
)

// Rule is one (label, compiled pattern) pair. A nil pattern means the
// configured pattern string was empty: the rule never matches. That guards
// against an accidental universal-match rule ranked last — the terminal
// fallback must be reached by exhaustion, not by an empty-pattern match.
type Rule struct {
	Label   string
	Pattern *regexp.Regexp
}

// Matches reports whether the rule's pattern matches the corpus.
func (r Rule) Matches(corpus string) bool {
	return r.Pattern != nil && r.Pattern.MatchString(corpus)
}

// RuleSet is an ordered sequence of rules for one classification axis.
// Order is significant — it encodes match priority — so the rules live in a
// slice, never a map. Rule sets are loaded once at startup and are read-only
// for the duration of the run.
type RuleSet struct {
	Name  string
	Rules []Rule
}

// Lookup returns the first rule carrying the given label.
func (s *RuleSet) Lookup(label string) (Rule, bool) {
	for _, r := range s.Rules {
		if r.Label == label {
			return r, true
		}
	}
	return Rule{}, false
}

// Len returns the number of rules in the set.
func (s *RuleSet) Len() int { return len(s.Rules) }

// ParseRuleSet decodes an ordered rule set from YAML. The expected format is
// a single mapping of label → pattern string; the mapping is decoded at the
// node level so file declaration order is preserved exactly (a plain
// map[string]string would destroy priority). Any other document shape is
// rejected.
//
// Patterns must be written lowercase: they are applied to an
// already-lowercased corpus and compiled case-sensitively.
//
// Policy decisions, each enforced by tests:
//   - an invalid regex is fatal for the whole rule set;
//   - an empty or null pattern yields a never-matching rule;
//   - a duplicate label keeps the first definition (rank and pattern) and
//     logs a warning for each later occurrence.
func ParseRuleSet(name string, data []byte, log logging.Logger) (*RuleSet, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternFileUnreadable,
			fmt.Sprintf("rule set %s: invalid YAML", name))
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.Newf(errors.ErrCodePatternEmptyRuleSet, "rule set %s: empty document", name)
	}

	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, errors.Newf(errors.ErrCodePatternFileUnreadable,
			"rule set %s: expected a mapping of label to pattern, got %s", name, nodeKind(mapping))
	}

	set := &RuleSet{Name: name}
	seen := make(map[string]bool, len(mapping.Content)/2)

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valNode := mapping.Content[i], mapping.Content[i+1]
		label := keyNode.Value

		if seen[label] {
			log.Warn("duplicate rule label ignored; first definition wins",
				logging.String("rule_set", name),
				logging.String("label", label),
				logging.Int("line", keyNode.Line),
			)
			continue
		}
		seen[label] = true

		pattern := ""
		if valNode.Tag != "!!null" {
			pattern = valNode.Value
		}

		rule := Rule{Label: label}
		if pattern != "" {
			re, err := regexp.Compile(pattern)
			if err != nil {
				// Fatal at load time: a broken pattern silently matching
				// nothing would mask real misclassifications.
				return nil, errors.Wrap(err, errors.ErrCodePatternInvalid,
					fmt.Sprintf("rule set %s: rule %q has an invalid pattern", name, label))
			}
			rule.Pattern = re
		} else {
			log.Debug("rule has an empty pattern and will never match",
				logging.String("rule_set", name),
				logging.String("label", label),
			)
		}
		set.Rules = append(set.Rules, rule)
	}

	if len(set.Rules) == 0 {
		return nil, errors.Newf(errors.ErrCodePatternEmptyRuleSet, "rule set %s: no rules defined", name)
	}
	return set, nil
}

// LoadRuleSet reads and parses the ordered rule set at path.
func LoadRuleSet(name, path string, log logging.Logger) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternFileUnreadable,
			fmt.Sprintf("rule set %s: cannot read %s", name, path))
	}
	return ParseRuleSet(name, data, log)
}

// RuleSets bundles the three axis rule sets consumed by the classifier.
type RuleSets struct {
	HLA      *RuleSet
	Scenario *RuleSet
	Disease  *RuleSet
}

// LoadRuleSets loads all three rule tables. Any load failure is fatal for
// the run; a partially-loaded rule configuration is never used.
func LoadRuleSets(hlaPath, scenarioPath, diseasePath string, log logging.Logger) (*RuleSets, error) {
	hla, err := LoadRuleSet("hla", hlaPath, log)
	if err != nil {
		return nil, err
	}
	scenario, err := LoadRuleSet("scenario", scenarioPath, log)
	if err != nil {
		return nil, err
	}
	disease, err := LoadRuleSet("disease", diseasePath, log)
	if err != nil {
		return nil, err
	}
	return &RuleSets{HLA: hla, Scenario: scenario, Disease: disease}, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
