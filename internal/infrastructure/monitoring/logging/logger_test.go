package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
		"WARN":    zapcore.WarnLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFieldsReachSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromCore(core)

	l.Info("generation pass complete",
		String("doc_key", "the quick brown fox"),
		Int("annotations", 5),
		Bool("stale", false),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Message != "generation pass complete" {
		t.Errorf("unexpected message %q", e.Message)
	}
	fields := e.ContextMap()
	if fields["doc_key"] != "the quick brown fox" {
		t.Errorf("doc_key field missing or wrong: %v", fields["doc_key"])
	}
	if fields["annotations"] != int64(5) {
		t.Errorf("annotations field missing or wrong: %v", fields["annotations"])
	}
}

func TestWithAttachesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromCore(core).With(String("component", "pipeline"))

	l.Warn("adapter failed")

	if got := logs.All()[0].ContextMap()["component"]; got != "pipeline" {
		t.Errorf("expected component field on child logger, got %v", got)
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	l := NewNop()
	l.Debug("x")
	l.Info("x", Err(nil))
	l.With(String("k", "v")).Named("n").Error("x")
}
