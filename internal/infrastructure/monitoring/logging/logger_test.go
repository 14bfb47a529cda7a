package logging

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestLogger_LevelsAndFields(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	log.Info("classified record",
		String("accession", "PXD014397"),
		Int("rules", 22),
		Bool("review", false),
		Duration("elapsed", 5*time.Millisecond),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Message != "classified record" {
		t.Errorf("message = %q", e.Message)
	}
	ctx := e.ContextMap()
	if ctx["accession"] != "PXD014397" {
		t.Errorf("accession field = %v", ctx["accession"])
	}
	if ctx["rules"] != int64(22) {
		t.Errorf("rules field = %v", ctx["rules"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	log, logs := newObservedLogger(zapcore.WarnLevel)

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("visible")

	if got := logs.Len(); got != 1 {
		t.Fatalf("expected 1 entry after filtering, got %d", got)
	}
}

func TestLogger_WithAndNamed(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	child := log.With(String("run_id", "abc")).Named("pride")
	child.Info("fetched")

	e := logs.All()[0]
	if e.ContextMap()["run_id"] != "abc" {
		t.Errorf("run_id missing from child logger entry")
	}
	if e.LoggerName != "pride" {
		t.Errorf("logger name = %q, want pride", e.LoggerName)
	}
}

func TestErrField(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.Error("fetch failed", Err(errors.New("timeout")))
	log.Error("no cause", Err(nil))

	entries := logs.All()
	if entries[0].ContextMap()["error"] != "timeout" {
		t.Errorf("error field = %v", entries[0].ContextMap()["error"])
	}
	if entries[1].ContextMap()["error"] != "<nil>" {
		t.Errorf("nil error field = %v", entries[1].ContextMap()["error"])
	}
}

func TestNopLoggerIsSilentAndChainable(t *testing.T) {
	log := NewNopLogger()
	log.With(String("k", "v")).Named("x").Info("dropped")
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	log, logs := newObservedLogger(zapcore.InfoLevel)
	SetDefault(log)
	Default().Info("via default")

	if logs.Len() != 1 {
		t.Fatal("entry should reach the default logger")
	}

	SetDefault(nil) // ignored
	if Default() != log {
		t.Error("SetDefault(nil) must not clear the default")
	}
}

func TestNewLogger_Defaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	if err != nil {
		t.Fatalf("NewLogger with empty config: %v", err)
	}
	if log == nil {
		t.Fatal("logger is nil")
	}
}
