package annotate

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/hla-annotator/internal/domain/annotation"
	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/logging"
)

// Summary aggregates one run's results.
type Summary struct {
	RunID    uuid.UUID
	Total    int
	Reviewed int
	Failed   int
	Duration time.Duration

	HLACounts      map[string]int
	ScenarioCounts map[string]int
	DiseaseCounts  map[string]int
}

// Summarize tallies the result set.
func Summarize(runID uuid.UUID, anns []annotation.Annotation, duration time.Duration) *Summary {
	s := &Summary{
		RunID:          runID,
		Total:          len(anns),
		Duration:       duration,
		HLACounts:      make(map[string]int),
		ScenarioCounts: make(map[string]int),
		DiseaseCounts:  make(map[string]int),
	}
	for _, a := range anns {
		c := a.Classification
		s.HLACounts[c.HLA]++
		s.ScenarioCounts[c.Scenario]++
		s.DiseaseCounts[c.Disease]++
		if c.NeedsReview() {
			s.Reviewed++
		}
		if c.HLA == annotation.ErrorMarker {
			s.Failed++
		}
	}
	return s
}

// ReviewRatio is the fraction of records routed to manual review.
func (s *Summary) ReviewRatio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Reviewed) / float64(s.Total)
}

// Log emits the run summary at info level.
func (s *Summary) Log(log logging.Logger) {
	log.Info("annotation run complete",
		logging.String("run_id", s.RunID.String()),
		logging.Int("total", s.Total),
		logging.Int("needs_review", s.Reviewed),
		logging.Int("failed", s.Failed),
		logging.Int("hla_classified", s.Total-s.HLACounts[annotation.Unspecified]-s.HLACounts[annotation.ErrorMarker]),
		logging.Duration("duration", s.Duration),
	)
}
