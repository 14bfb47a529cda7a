package annotate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/hla-annotator/internal/config"
	"github.com/turtacn/hla-annotator/internal/domain/annotation"
	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/hla-annotator/pkg/errors"
)

// fakeFetcher serves canned records and simulated failures by accession.
type fakeFetcher struct {
	records map[string]*annotation.Record
	fail    map[string]error
	panics  map[string]bool
}

func (f *fakeFetcher) FetchProject(_ context.Context, accession string) (*annotation.Record, error) {
	if f.panics[accession] {
		panic("fetcher exploded for " + accession)
	}
	if err, ok := f.fail[accession]; ok {
		return nil, err
	}
	if rec, ok := f.records[accession]; ok {
		return rec, nil
	}
	return nil, errors.Newf(errors.ErrCodeNotFound, "no record for %s", accession)
}

func testService(t *testing.T, meta string, fetcher Fetcher) (*Service, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "meta.txt")
	require.NoError(t, os.WriteFile(metaPath, []byte(meta), 0o644))

	cfg := config.NewDefaultConfig()
	cfg.Input.MetaFile = metaPath
	cfg.Output.AnnotationFile = filepath.Join(dir, "dataset_annotation.tsv")
	cfg.Output.ReviewFile = filepath.Join(dir, "needs_manual.csv")
	cfg.Worker.Concurrency = 4

	rules := &annotation.RuleSets{
		HLA: mustRules(t, "hla", `
HLA_I: '\b(hla[- ]?i|class[- ]?i)\b'
HLA_II: '\b(hla[- ]?ii|class[- ]?ii)\b'
`),
		Scenario: mustRules(t, "scenario", "Cancer: '\\b(cancer|tumor|melanoma)\\b'\n"),
		Disease:  mustRules(t, "disease", "Melanoma: melanoma\nCancer: '\\b(cancer|tumor)\\b'\n"),
	}
	classifier, err := annotation.NewClassifier(rules)
	require.NoError(t, err)

	return NewService(cfg, classifier, fetcher, logging.NewNopLogger()), cfg
}

func mustRules(t *testing.T, name, yaml string) *annotation.RuleSet {
	t.Helper()
	set, err := annotation.ParseRuleSet(name, []byte(yaml), logging.NewNopLogger())
	require.NoError(t, err)
	return set
}

func record(title string) *annotation.Record {
	return &annotation.Record{Title: title}
}

func TestRun_EndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{
		records: map[string]*annotation.Record{
			"PXD000001": record("HLA-I melanoma tumor ligandome"),
			"PXD000002": record("class ii peptides of unknown tissue"),
		},
	}
	svc, cfg := testService(t, "PXD000001\nPXD000002\n", fetcher)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Reviewed)
	assert.Equal(t, 0, summary.Failed)
	assert.InDelta(t, 0.5, summary.ReviewRatio(), 1e-9)

	out, err := os.ReadFile(cfg.Output.AnnotationFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "PXD000001\tI\tCancer\tMelanoma", lines[1])
	assert.Equal(t, "PXD000002\tII\tUnspecified\tUnspecified", lines[2])

	review, err := os.ReadFile(cfg.Output.ReviewFile)
	require.NoError(t, err)
	assert.Contains(t, string(review), "PXD000002,II,Unspecified,Unspecified")
	assert.NotContains(t, string(review), "PXD000001")
}

func TestRun_OutputOrderMatchesInputUnderConcurrency(t *testing.T) {
	// Many accessions, all resolvable, verified against input order. With a
	// pool of 4 workers an ordering bug would scramble this reliably.
	var meta strings.Builder
	records := make(map[string]*annotation.Record)
	var want []string
	for _, suffix := range []string{"9", "3", "7", "1", "8", "2", "6", "4", "5", "0"} {
		acc := "PXD00001" + suffix
		meta.WriteString(acc + "\n")
		records[acc] = record("hla-i melanoma study " + suffix)
		want = append(want, acc)
	}
	svc, cfg := testService(t, meta.String(), &fakeFetcher{records: records})

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	out, err := os.ReadFile(cfg.Output.AnnotationFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")[1:]
	require.Len(t, lines, len(want))
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, want[i]+"\t"),
			"row %d = %q, want accession %s", i, line, want[i])
	}
}

func TestRun_FetchFailureFallsBackToPrior(t *testing.T) {
	fetcher := &fakeFetcher{
		fail: map[string]error{
			"PXD000001": errors.New(errors.ErrCodeFetchFailed, "archive down"),
		},
	}
	svc, cfg := testService(t, "PXD000001\tI\tCancer\tMelanoma\n", fetcher)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.Reviewed)

	out, err := os.ReadFile(cfg.Output.AnnotationFile)
	require.NoError(t, err)
	assert.Contains(t, string(out), "PXD000001\tI\tCancer\tMelanoma")
}

func TestRun_FetchFailureWithoutPriorIsErrorMarked(t *testing.T) {
	fetcher := &fakeFetcher{
		fail: map[string]error{
			"PXD000001": errors.New(errors.ErrCodeFetchFailed, "archive down"),
		},
	}
	svc, cfg := testService(t, "PXD000001\n", fetcher)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Reviewed)

	review, err := os.ReadFile(cfg.Output.ReviewFile)
	require.NoError(t, err)
	assert.Contains(t, string(review), "PXD000001,Error,Error,Error")
}

func TestRun_PanicInOneRecordDoesNotAbortRun(t *testing.T) {
	fetcher := &fakeFetcher{
		records: map[string]*annotation.Record{
			"PXD000002": record("hla-i melanoma"),
		},
		panics: map[string]bool{"PXD000001": true},
	}
	svc, cfg := testService(t, "PXD000001\nPXD000002\n", fetcher)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Failed)

	out, err := os.ReadFile(cfg.Output.AnnotationFile)
	require.NoError(t, err)
	assert.Contains(t, string(out), "PXD000001\tError\tError\tError")
	assert.Contains(t, string(out), "PXD000002\tI\tCancer\tMelanoma")
}

func TestRun_UnreadableMetaFileFailsRun(t *testing.T) {
	svc, cfg := testService(t, "PXD000001\n", &fakeFetcher{})
	cfg.Input.MetaFile = filepath.Join(t.TempDir(), "absent.txt")

	_, err := svc.Run(context.Background())
	assert.Error(t, err)
}

func TestSummarize_Counts(t *testing.T) {
	anns := []annotation.Annotation{
		{Accession: "A", Classification: annotation.Classification{HLA: "I", Scenario: "Cancer", Disease: "Melanoma"}},
		{Accession: "B", Classification: annotation.Classification{HLA: "I", Scenario: "Mixed", Disease: "Cancer"}},
		{Accession: "C", Classification: annotation.Unclassified()},
		{Accession: "D", Classification: annotation.Failed()},
	}
	s := Summarize(uuid.New(), anns, time.Second)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Reviewed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.HLACounts["I"])
	assert.Equal(t, 1, s.ScenarioCounts["Mixed"])
	assert.Equal(t, 1, s.DiseaseCounts[annotation.Unspecified])
}
