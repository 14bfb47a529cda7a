package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/logging"
)

// debounceWindow coalesces the burst of fsnotify events an editor save
// produces into a single re-run.
const debounceWindow = 500 * time.Millisecond

type watchOptions struct {
	metricsAddr string
}

// NewWatchCmd creates the watch command: run once, then re-run whenever the
// meta file or a rule table changes, until interrupted.
func NewWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run annotation whenever the accession list or rule tables change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runWatch(cmd, cliCtx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics on this address (e.g. :9090)")
	return cmd
}

func runWatch(cmd *cobra.Command, cliCtx *CLIContext, opts *watchOptions) error {
	cfg, log := cliCtx.Config, cliCtx.Logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directories, not the files: editors replace files on
	// save, which drops a direct file watch.
	watched := map[string]bool{}
	for _, f := range []string{
		cfg.Input.MetaFile,
		cfg.Patterns.HLAFile,
		cfg.Patterns.ScenarioFile,
		cfg.Patterns.DiseaseFile,
	} {
		dir := filepath.Dir(f)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = true
	}
	interesting := map[string]bool{}
	for _, f := range []string{
		cfg.Input.MetaFile,
		cfg.Patterns.HLAFile,
		cfg.Patterns.ScenarioFile,
		cfg.Patterns.DiseaseFile,
	} {
		interesting[filepath.Clean(f)] = true
	}

	// One metrics instance for the whole watch session: the /metrics endpoint
	// must keep its counters across service rebuilds.
	metrics := newMetrics(cliCtx)

	runOnce := func() {
		// The service is rebuilt per run so rule-table edits take effect;
		// cache and store connections are opened and closed with it.
		svc, cleanup, err := buildService(cliCtx, metrics)
		if err != nil {
			log.Error("run skipped: pipeline build failed", logging.Err(err))
			return
		}
		defer cleanup()

		if _, err := svc.Run(ctx); err != nil {
			log.Error("annotation run failed", logging.Err(err))
		}
	}

	if opts.metricsAddr != "" && metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		server := &http.Server{Addr: opts.metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", logging.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
		log.Info("serving metrics", logging.String("addr", opts.metricsAddr))
	}

	runOnce()

	log.Info("watching for changes",
		logging.String("meta_file", cfg.Input.MetaFile),
		logging.Int("directories", len(watched)),
	)

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !interesting[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("change detected", logging.String("file", event.Name))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", logging.Err(err))

		case <-pending:
			runOnce()
		}
	}
}
