package main

import (
	"bytes"
	"testing"

	"github.com/listmagify/recs-engine/internal/catalog"
	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/listmagify/recs-engine/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:", 1, 1)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewRunnerWithAllDependencies(t *testing.T) {
	config := shared.DefaultConfig()
	logger := shared.NewLogger(nil)
	output := &bytes.Buffer{}
	s := newTestStore(t)
	client := catalog.NullClient{}

	runner := NewRunner(RunnerConfig{Config: config, Store: s, Catalog: client, Logger: logger, Output: output})

	if runner.config != config {
		t.Error("expected config to be set")
	}
	if runner.logger != logger {
		t.Error("expected logger to be set")
	}
	if runner.output != output {
		t.Error("expected output to be set")
	}
	if runner.store != s {
		t.Error("expected store to be set")
	}
}

func TestNewRunnerDefaultsUnsetDependencies(t *testing.T) {
	s := newTestStore(t)
	runner := NewRunner(RunnerConfig{Store: s})

	if runner.config == nil {
		t.Error("expected a default config")
	}
	if runner.logger == nil {
		t.Error("expected a default logger")
	}
	if runner.output == nil {
		t.Error("expected a default output writer")
	}
	if runner.catalog == nil {
		t.Error("expected a default NullClient catalog")
	}
}

func TestRunnerRouterIsAssembled(t *testing.T) {
	s := newTestStore(t)
	config := shared.DefaultConfig()
	config.Recs.Enabled = true
	runner := NewRunner(RunnerConfig{Config: config, Store: s})

	router := runner.router()
	if router == nil {
		t.Fatal("expected a non-nil router")
	}
}
