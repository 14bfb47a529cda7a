// Package annotation implements the dataset classification core: the text
// normalizer, the ordered pattern rule sets, the three-axis classifier, and
// the manual-review routing predicate.
package annotation

import "strings"

// Attribute is a key/value metadata pair attached to a project. Only the
// value participates in classification; the key is carried for provenance.
type Attribute struct {
	Key   string
	Value string
}

// Record is one dataset's raw text metadata, constructed once per accession
// per run from fetched metadata and immutable thereafter. The accession is
// treated as an opaque identifier; the core validates nothing beyond
// non-emptiness at the application boundary.
type Record struct {
	Accession   string
	Title       string
	Description string
	Keywords    []string
	Attributes  []Attribute
	// SampleAttributes holds sample-level attribute strings plus any other
	// free-text project fields (instruments, species, tissues, PTMs, tags).
	SampleAttributes []string
}

// Corpus returns the record's single normalized search string: lowercase,
// space-joined, in the fixed field order title, description, keywords,
// attribute values, sample attributes. Missing fields contribute nothing.
// Pure function; identical input always yields identical output, which is
// what makes upstream caching of fetched metadata safe.
func (r *Record) Corpus() string {
	parts := make([]string, 0, 5)

	appendPart := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	appendPart(r.Title)
	appendPart(r.Description)
	appendPart(strings.Join(r.Keywords, " "))

	values := make([]string, 0, len(r.Attributes))
	for _, attr := range r.Attributes {
		if attr.Value != "" {
			values = append(values, attr.Value)
		}
	}
	appendPart(strings.Join(values, " "))
	appendPart(strings.Join(r.SampleAttributes, " "))

	return strings.ToLower(strings.Join(parts, " "))
}
