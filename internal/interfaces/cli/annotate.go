package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/hla-annotator/internal/application/annotate"
	"github.com/turtacn/hla-annotator/internal/domain/annotation"
	"github.com/turtacn/hla-annotator/internal/infrastructure/database/postgres"
	"github.com/turtacn/hla-annotator/internal/infrastructure/database/redis"
	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/hla-annotator/internal/infrastructure/pride"
)

type annotateOptions struct {
	metaFile       string
	annotationFile string
	reviewFile     string
	concurrency    int
}

// NewAnnotateCmd creates the one-shot annotation command.
func NewAnnotateCmd() *cobra.Command {
	opts := &annotateOptions{}

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Run one annotation pass over the accession list",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			applyAnnotateOverrides(cliCtx, opts)

			svc, cleanup, err := buildService(cliCtx, newMetrics(cliCtx))
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd, cliCtx, summary)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.metaFile, "meta", "", "accession list file (overrides config)")
	f.StringVar(&opts.annotationFile, "annotations", "", "annotation output TSV (overrides config)")
	f.StringVar(&opts.reviewFile, "review", "", "manual-review output CSV (overrides config)")
	f.IntVar(&opts.concurrency, "concurrency", 0, "worker pool size (overrides config)")
	return cmd
}

func applyAnnotateOverrides(cliCtx *CLIContext, opts *annotateOptions) {
	cfg := cliCtx.Config
	if opts.metaFile != "" {
		cfg.Input.MetaFile = opts.metaFile
	}
	if opts.annotationFile != "" {
		cfg.Output.AnnotationFile = opts.annotationFile
	}
	if opts.reviewFile != "" {
		cfg.Output.ReviewFile = opts.reviewFile
	}
	if opts.concurrency > 0 {
		cfg.Worker.Concurrency = opts.concurrency
	}
}

// newMetrics returns a metrics instance when metrics are enabled, nil
// otherwise. Created by the caller so watch mode can keep one instance alive
// across service rebuilds.
func newMetrics(cliCtx *CLIContext) *prometheus.Metrics {
	if !cliCtx.Config.Metrics.Enabled {
		return nil
	}
	return prometheus.NewMetrics(cliCtx.Config.Metrics.Namespace)
}

// buildService assembles the pipeline from configuration: rule sets,
// classifier, archive client, and the optional cache and store. The returned
// cleanup releases every connection that was opened.
func buildService(cliCtx *CLIContext, metrics *prometheus.Metrics) (*annotate.Service, func(), error) {
	cfg, log := cliCtx.Config, cliCtx.Logger

	rules, err := annotation.LoadRuleSets(
		cfg.Patterns.HLAFile,
		cfg.Patterns.ScenarioFile,
		cfg.Patterns.DiseaseFile,
		log,
	)
	if err != nil {
		return nil, nil, err
	}
	classifier, err := annotation.NewClassifier(rules)
	if err != nil {
		return nil, nil, err
	}

	fetcher := pride.NewClient(cfg.Fetch, log)

	var opts []annotate.ServiceOption
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.Cache.Enabled {
		client, err := redis.NewClient(cfg.Cache, log)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { client.Close() })
		cache := redis.NewCache(client, log,
			redis.WithPrefix(cfg.Cache.KeyPrefix),
			redis.WithDefaultTTL(cfg.Cache.TTL),
		)
		opts = append(opts, annotate.WithCache(cache))
	}

	if cfg.Store.Enabled {
		if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Store), cfg.Store.MigrationsPath); err != nil {
			cleanup()
			return nil, nil, err
		}
		conn, err := postgres.NewConnection(cfg.Store, log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { conn.Close() })
		opts = append(opts, annotate.WithStore(postgres.NewAnnotationRepository(conn)))
	}

	if metrics != nil {
		opts = append(opts, annotate.WithMetrics(metrics))
	}

	svc := annotate.NewService(cfg, classifier, fetcher, log, opts...)
	return svc, cleanup, nil
}

func printSummary(cmd *cobra.Command, cliCtx *CLIContext, s *annotate.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "annotated %d dataset(s) in %s\n", s.Total, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  manual review: %d (%.1f%%)\n", s.Reviewed, s.ReviewRatio()*100)
	fmt.Fprintf(out, "  failed:        %d\n", s.Failed)
	fmt.Fprintf(out, "  annotations:   %s\n", cliCtx.Config.Output.AnnotationFile)
	fmt.Fprintf(out, "  review queue:  %s\n", cliCtx.Config.Output.ReviewFile)
}
