package annotate

import (
	"encoding/csv"
	"os"

	"github.com/turtacn/hla-annotator/internal/domain/annotation"
	"github.com/turtacn/hla-annotator/pkg/errors"
)

var outputHeader = []string{"accession", "hla_class", "scenario", "disease"}

// WriteAnnotations writes every annotation as TSV, one row per record, in the
// given order. The file is replaced atomically enough for our purposes: a
// partial write fails loudly instead of leaving a silently truncated table in
// place of the previous run.
func WriteAnnotations(path string, anns []annotation.Annotation) error {
	return writeTable(path, anns, '\t', func(annotation.Classification) bool { return true })
}

// WriteReviewQueue writes the manual-review subset as CSV, preserving the
// relative order of the full result set.
func WriteReviewQueue(path string, anns []annotation.Annotation) error {
	return writeTable(path, anns, ',', annotation.Classification.NeedsReview)
}

func writeTable(path string, anns []annotation.Annotation, comma rune, include func(annotation.Classification) bool) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "cannot create output file "+path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = comma

	if err := w.Write(outputHeader); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write header")
	}
	for _, a := range anns {
		if !include(a.Classification) {
			continue
		}
		row := []string{a.Accession, a.Classification.HLA, a.Classification.Scenario, a.Classification.Disease}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to write row for "+a.Accession)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to flush output file "+path)
	}
	return f.Close()
}
