package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"testing"

	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"-strategies", "leagues, teams", "-dry-run", "-env-file", "a.env,b.env", "highlights"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs returned error: %v", err)
	}

	want := []string{"leagues", "teams", "highlights"}
	if len(opts.strategies) != len(want) {
		t.Fatalf("unexpected strategies: %v", opts.strategies)
	}
	for i := range want {
		if opts.strategies[i] != want[i] {
			t.Fatalf("strategy %d: got %q want %q", i, opts.strategies[i], want[i])
		}
	}
	if !opts.dryRun || !opts.dryRunSet {
		t.Fatalf("expected explicit dry run, got %+v", opts)
	}
	if len(opts.envFiles) != 2 || opts.envFiles[1] != "b.env" {
		t.Fatalf("unexpected env files: %v", opts.envFiles)
	}
}

func TestParseArgs_DryRunUnsetKeepsConfig(t *testing.T) {
	opts, err := parseArgs(nil, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs returned error: %v", err)
	}
	if opts.dryRunSet {
		t.Fatalf("dry run must not override config when the flag is absent")
	}
	if len(opts.envFiles) != 1 || opts.envFiles[0] != ".env" {
		t.Fatalf("unexpected default env files: %v", opts.envFiles)
	}
}

func TestParseArgs_Help(t *testing.T) {
	_, err := parseArgs([]string{"-h"}, io.Discard)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
}

func TestRun_UnknownFlagIsUsageError(t *testing.T) {
	if code := run(context.Background(), []string{"-nope"}, io.Discard, io.Discard); code != exitUsage {
		t.Fatalf("expected exit %d, got %d", exitUsage, code)
	}
}

func TestExitCode(t *testing.T) {
	completed := usecase.StrategyReport{Name: "leagues", State: usecase.StateCompleted}
	failed := usecase.StrategyReport{Name: "highlights", State: usecase.StateFailed}

	tests := []struct {
		name   string
		report usecase.RunReport
		want   int
	}{
		{name: "empty", report: usecase.RunReport{}, want: exitOK},
		{name: "all completed", report: usecase.RunReport{Strategies: []usecase.StrategyReport{completed, completed}}, want: exitOK},
		{name: "some failed", report: usecase.RunReport{Strategies: []usecase.StrategyReport{completed, failed}}, want: exitPartial},
		{name: "all failed", report: usecase.RunReport{Strategies: []usecase.StrategyReport{failed}}, want: exitFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.report); got != tt.want {
				t.Fatalf("got %d want %d", got, tt.want)
			}
		})
	}
}
