package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/highlight-sync/internal/app"
	"github.com/riskibarqy/highlight-sync/internal/config"
	"github.com/riskibarqy/highlight-sync/internal/observability"
	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitPartial = 3
)

type options struct {
	envFiles   []string
	strategies []string
	dryRun     bool
	dryRunSet  bool
	list       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if err := config.LoadDotEnv(opts.envFiles...); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitUsage
	}

	logger := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
		Version: cfg.ServiceVersion,
	})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	stopObservability, err := observability.Start(cfg, logger)
	if err != nil {
		logger.Error("init observability", "error", err)
		return exitFailed
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := stopObservability(flushCtx); err != nil {
			logger.Warn("flush observability", "error", err)
		}
	}()

	overrides := app.Overrides{Strategies: opts.strategies}
	if opts.dryRunSet {
		overrides.DryRun = &opts.dryRun
	}
	pipeline, err := app.NewPipeline(ctx, cfg, logger, overrides)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		return exitFailed
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pipeline.Close(closeCtx); err != nil {
			logger.Warn("close pipeline", "error", err)
		}
	}()

	if opts.list {
		fmt.Fprintln(stdout, strings.Join(pipeline.Orchestrator.DefaultStrategies(), "\n"))
		return exitOK
	}

	report, err := pipeline.Orchestrator.Run(ctx, opts.strategies...)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		logger.Error("sync run failed", "error", err)
		if report.RunID == "" {
			return exitFailed
		}
	}

	out, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Error("encode run report", "error", err)
		return exitFailed
	}
	fmt.Fprintln(stdout, string(out))

	return exitCode(report)
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: sync [flags] [strategy ...]")
		fs.PrintDefaults()
	}

	var opts options
	var strategies, envFiles string
	fs.StringVar(&strategies, "strategies", "", "comma separated strategy names; defaults to SYNC_STRATEGIES")
	fs.StringVar(&envFiles, "env-file", ".env", "comma separated env files loaded before the environment is read")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "walk and normalize without writing")
	fs.BoolVar(&opts.list, "list", false, "print the configured strategies and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "dry-run" {
			opts.dryRunSet = true
		}
	})

	opts.strategies = splitNames(strategies)
	opts.strategies = append(opts.strategies, splitNames(strings.Join(fs.Args(), ","))...)
	opts.envFiles = splitNames(envFiles)
	return opts, nil
}

func splitNames(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// exitCode is 0 when every strategy completed, 3 when some failed and 1 when
// all of them did.
func exitCode(report usecase.RunReport) int {
	if len(report.Strategies) == 0 {
		return exitOK
	}
	failed := 0
	for _, strategy := range report.Strategies {
		if strategy.State == usecase.StateFailed {
			failed++
		}
	}
	switch {
	case failed == 0:
		return exitOK
	case failed == len(report.Strategies):
		return exitFailed
	default:
		return exitPartial
	}
}
