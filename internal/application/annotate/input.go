package annotate

import (
	"bufio"
	"os"
	"strings"

	"github.com/turtacn/hla-annotator/internal/domain/annotation"
	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/hla-annotator/pkg/errors"
)

// Entry is one accession to process. Prior carries the classification columns
// of an earlier annotation round when the meta file has them; it is the
// fallback for accessions whose metadata cannot be fetched.
type Entry struct {
	Accession string
	Prior     *annotation.Classification
}

// ReadAccessions parses the meta file: a TSV whose first column holds
// accessions, with an optional header row and optional prior-annotation
// columns (hla, scenario, disease). Input order is preserved; duplicate
// accessions keep their first occurrence.
func ReadAccessions(path string, log logging.Logger) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "cannot open meta file "+path)
	}
	defer f.Close()

	var entries []Entry
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		accession := strings.TrimSpace(fields[0])
		if accession == "" {
			continue
		}
		if lineNo == 1 && strings.EqualFold(accession, "accession") {
			continue
		}
		if seen[accession] {
			log.Warn("duplicate accession in meta file; keeping first occurrence",
				logging.String("accession", accession),
				logging.Int("line", lineNo),
			)
			continue
		}
		seen[accession] = true

		entry := Entry{Accession: accession}
		if len(fields) >= 4 {
			prior := annotation.Classification{
				HLA:      strings.TrimSpace(fields[1]),
				Scenario: strings.TrimSpace(fields[2]),
				Disease:  strings.TrimSpace(fields[3]),
			}
			if prior.HLA != "" && prior.Scenario != "" && prior.Disease != "" {
				entry.Prior = &prior
			}
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read meta file")
	}
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "meta file contains no accessions")
	}
	return entries, nil
}
