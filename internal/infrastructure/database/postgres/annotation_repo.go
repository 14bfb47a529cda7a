package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/hla-annotator/internal/domain/annotation"
	"github.com/turtacn/hla-annotator/pkg/errors"
)

// Run is one persisted annotation run.
type Run struct {
	ID         uuid.UUID
	MetaFile   string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Reviewed   int
	Failed     int
}

// AnnotationRepository persists runs and their classifications.
type AnnotationRepository struct {
	conn *Connection
}

func NewAnnotationRepository(conn *Connection) *AnnotationRepository {
	return &AnnotationRepository{conn: conn}
}

// BeginRun records the start of a run. Totals are filled in by CompleteRun.
func (r *AnnotationRepository) BeginRun(ctx context.Context, run *Run) error {
	_, err := r.conn.db.ExecContext(ctx,
		`INSERT INTO annotation_runs (id, meta_file, started_at) VALUES ($1, $2, $3)`,
		run.ID, run.MetaFile, run.StartedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert run")
	}
	return nil
}

// CompleteRun closes out a run with its final counts.
func (r *AnnotationRepository) CompleteRun(ctx context.Context, run *Run) error {
	res, err := r.conn.db.ExecContext(ctx,
		`UPDATE annotation_runs
		 SET finished_at = $2, total_records = $3, review_records = $4, error_records = $5
		 WHERE id = $1`,
		run.ID, run.FinishedAt, run.Total, run.Reviewed, run.Failed,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to complete run")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrCodeNotFound, "run %s not found", run.ID)
	}
	return nil
}

// SaveAnnotations writes a run's classifications in one transaction so a
// crashed run never leaves a partial result set behind.
func (r *AnnotationRepository) SaveAnnotations(ctx context.Context, runID uuid.UUID, anns []annotation.Annotation) error {
	if len(anns) == 0 {
		return nil
	}

	tx, err := r.conn.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO annotations (run_id, accession, hla_class, scenario, disease, needs_review)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, a := range anns {
		c := a.Classification
		if _, err := stmt.ExecContext(ctx, runID, a.Accession, c.HLA, c.Scenario, c.Disease, c.NeedsReview()); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert annotation "+a.Accession)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit annotations")
	}
	return nil
}

// LatestAnnotation returns the most recent classification stored for an
// accession across all runs.
func (r *AnnotationRepository) LatestAnnotation(ctx context.Context, accession string) (*annotation.Annotation, error) {
	row := r.conn.db.QueryRowContext(ctx,
		`SELECT a.accession, a.hla_class, a.scenario, a.disease
		 FROM annotations a
		 JOIN annotation_runs r ON r.id = a.run_id
		 WHERE a.accession = $1
		 ORDER BY r.started_at DESC
		 LIMIT 1`,
		accession,
	)

	var ann annotation.Annotation
	err := row.Scan(&ann.Accession, &ann.Classification.HLA, &ann.Classification.Scenario, &ann.Classification.Disease)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load latest annotation")
	}
	return &ann, nil
}

// ReviewBacklog returns the accessions from the latest run that still need
// manual review.
func (r *AnnotationRepository) ReviewBacklog(ctx context.Context, runID uuid.UUID) ([]string, error) {
	rows, err := r.conn.db.QueryContext(ctx,
		`SELECT accession FROM annotations WHERE run_id = $1 AND needs_review ORDER BY accession`,
		runID,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query review backlog")
	}
	defer rows.Close()

	var accs []string
	for rows.Next() {
		var acc string
		if err := rows.Scan(&acc); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan accession")
		}
		accs = append(accs, acc)
	}
	return accs, rows.Err()
}
